package transcode

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/RyanBlaney/sonido-denoise/audio"
	"github.com/RyanBlaney/sonido-denoise/logging"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV format tags from the fmt chunk.
const (
	wavFormatPCM       = 1
	wavFormatIEEEFloat = 3
)

// ErrUnsupportedEncoding is returned for WAV files whose sample encoding the
// WAV reader cannot decode (compressed formats, 64-bit float, extensible).
var ErrUnsupportedEncoding = errors.New("unsupported WAV encoding")

// WAVSource reads PCM WAV files.
type WAVSource struct{}

func NewWAVSource() *WAVSource {
	return &WAVSource{}
}

// Decode reads every frame of a PCM or 32-bit float WAV file. Integer
// samples are scaled to [-1, 1) by their bit depth; 8-bit data is unsigned
// and re-centred first. Other encodings fail with ErrUnsupportedEncoding.
func (s *WAVSource) Decode(ctx context.Context, path string) (audio.Raw, error) {
	if err := ctx.Err(); err != nil {
		return audio.Raw{}, err
	}

	file, err := os.Open(path)
	if err != nil {
		return audio.Raw{}, audio.NewLoadError(path, err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return audio.Raw{}, audio.NewLoadError(path, errors.New("invalid WAV file"))
	}

	format := int(decoder.WavAudioFormat)
	switch {
	case format == wavFormatPCM:
	case format == wavFormatIEEEFloat && decoder.BitDepth == 32:
	default:
		return audio.Raw{}, audio.NewLoadError(path, fmt.Errorf("%w: format tag %d, %d bits",
			ErrUnsupportedEncoding, format, decoder.BitDepth))
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return audio.Raw{}, audio.NewLoadError(path, fmt.Errorf("could not read PCM buffer: %w", err))
	}
	if buf.Format == nil {
		return audio.Raw{}, audio.NewLoadError(path, errors.New("missing format chunk"))
	}

	var samples []float64
	if format == wavFormatIEEEFloat {
		samples = float32BitsToFloat64(buf.Data)
	} else {
		bitDepth := buf.SourceBitDepth
		if bitDepth == 0 {
			bitDepth = int(decoder.BitDepth)
		}
		samples = intsToFloat64(buf.Data, bitDepth)
	}

	return audio.Raw{
		Source:     path,
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		Samples:    samples,
	}, nil
}

// float32BitsToFloat64 reinterprets 32-bit words, which the PCM reader
// returns as sign-extended integers, as IEEE floats.
func float32BitsToFloat64(data []int) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(math.Float32frombits(uint32(v)))
	}
	return out
}

func intsToFloat64(data []int, bitDepth int) []float64 {
	out := make([]float64, len(data))
	if bitDepth <= 0 || bitDepth > 32 {
		bitDepth = 16
	}
	full := float64(int64(1) << (bitDepth - 1))
	for i, v := range data {
		if bitDepth == 8 {
			v -= 128
		}
		out[i] = float64(v) / full
	}
	return out
}

// WAVSink writes mono PCM WAV files.
type WAVSink struct {
	bitDepth int
}

// NewWAVSink creates a sink writing bitDepth-bit samples. Unsupported
// depths fall back to 16.
func NewWAVSink(bitDepth int) *WAVSink {
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		bitDepth = 16
	}
	return &WAVSink{bitDepth: bitDepth}
}

func (s *WAVSink) BitDepth() int {
	return s.bitDepth
}

// OutputPath appends ".wav" when path has no WAV extension.
func OutputPath(path string) string {
	if IsWAV(path) {
		return path
	}
	return strings.TrimSuffix(path, ".") + ".wav"
}

// Save quantizes w and writes it to path (see OutputPath).
func (s *WAVSink) Save(ctx context.Context, path string, w *audio.Waveform) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	path = OutputPath(path)
	logger := logging.WithFields(logging.Fields{
		"component": "transcode",
		"function":  "WAVSink.Save",
		"path":      path,
	})

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output file creation error: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	encoder := wav.NewEncoder(file, w.SampleRate(), s.bitDepth, 1, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: w.SampleRate()},
		Data:           Quantize(w.Samples(), s.bitDepth),
		SourceBitDepth: s.bitDepth,
	}

	if err := encoder.Write(buf); err != nil {
		encoder.Close()
		return fmt.Errorf("data writing error: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finalize WAV header: %w", err)
	}

	logger.Info("Filtered audio saved", logging.Fields{
		"samples":   w.Len(),
		"bit_depth": s.bitDepth,
	})
	return nil
}

// Quantize maps [-1, 1] samples to signed integers of the given depth,
// truncating toward zero. Values outside the range are clipped. 8-bit output
// is offset to unsigned.
func Quantize(samples []float64, bitDepth int) []int {
	full := float64(int64(1)<<(bitDepth-1)) - 1
	out := make([]int, len(samples))
	for i, x := range samples {
		x = max(-1, min(1, x))
		v := int(x * full)
		if bitDepth == 8 {
			v += 128
		}
		out[i] = v
	}
	return out
}
