// Package transcode moves audio between files and waveforms: WAV through
// go-audio, every other container through an ffmpeg subprocess.
package transcode

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/RyanBlaney/sonido-denoise/audio"
	"github.com/RyanBlaney/sonido-denoise/logging"
)

// Source decodes a file into interleaved samples.
type Source interface {
	Decode(ctx context.Context, path string) (audio.Raw, error)
}

// Sink encodes a waveform to a file.
type Sink interface {
	Save(ctx context.Context, path string, w *audio.Waveform) error
}

// FileLoader picks a Source by file extension and turns the decoded samples
// into a normalized mono waveform.
type FileLoader struct {
	wav    Source
	ffmpeg Source
}

// NewFileLoader creates a loader. A nil ffmpeg source restricts loading to
// WAV files.
func NewFileLoader(wav, ffmpeg Source) *FileLoader {
	if wav == nil {
		wav = NewWAVSource()
	}
	return &FileLoader{wav: wav, ffmpeg: ffmpeg}
}

// SourceFor returns the source that handles path.
func (l *FileLoader) SourceFor(path string) (Source, error) {
	if IsWAV(path) {
		return l.wav, nil
	}
	if l.ffmpeg == nil {
		return nil, audio.NewLoadError(path, errors.New("unsupported format "+filepath.Ext(path)+" and no ffmpeg configured"))
	}
	return l.ffmpeg, nil
}

// Load decodes path and returns the normalized mono waveform.
func (l *FileLoader) Load(ctx context.Context, path string) (*audio.Waveform, error) {
	src, err := l.SourceFor(path)
	if err != nil {
		return nil, err
	}

	raw, err := src.Decode(ctx, path)
	if errors.Is(err, ErrUnsupportedEncoding) && l.ffmpeg != nil && src != l.ffmpeg {
		logging.WithFields(logging.Fields{
			"component": "transcode",
			"function":  "Load",
			"path":      path,
		}).Debug("WAV encoding not readable directly, decoding with ffmpeg")
		raw, err = l.ffmpeg.Decode(ctx, path)
	}
	if err != nil {
		var loadErr *audio.LoadError
		if errors.As(err, &loadErr) {
			return nil, err
		}
		return nil, audio.NewLoadError(path, err)
	}

	w, err := audio.Load(raw)
	if err != nil {
		return nil, err
	}

	logging.WithFields(logging.Fields{
		"component": "transcode",
		"function":  "Load",
		"path":      path,
	}).Debug("Audio decoded", logging.Fields{
		"channels":    raw.Channels,
		"sample_rate": w.SampleRate(),
		"samples":     w.Len(),
	})

	return w, nil
}

// IsWAV reports whether path has a .wav or .wave extension.
func IsWAV(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return true
	}
	return false
}
