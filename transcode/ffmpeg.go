package transcode

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-denoise/audio"
	"github.com/RyanBlaney/sonido-denoise/logging"
)

// FFmpegConfig holds decoder configuration
type FFmpegConfig struct {
	FFmpegPath       string        `json:"ffmpeg_path" yaml:"ffmpeg_path"`               // Path to ffmpeg binary
	FFprobePath      string        `json:"ffprobe_path" yaml:"ffprobe_path"`             // Path to ffprobe binary
	TargetSampleRate int           `json:"target_sample_rate" yaml:"target_sample_rate"` // 0 keeps the source rate
	MaxDuration      time.Duration `json:"max_duration" yaml:"max_duration"`
	Timeout          time.Duration `json:"timeout" yaml:"timeout"` // Timeout for each ffmpeg/ffprobe call
}

// DefaultFFmpegConfig returns default decoder configuration
func DefaultFFmpegConfig() *FFmpegConfig {
	return &FFmpegConfig{
		FFmpegPath:  "ffmpeg",  // Assume in PATH
		FFprobePath: "ffprobe", // Assume in PATH
		Timeout:     30 * time.Second,
	}
}

// StreamInfo is what ffprobe reports about the first audio stream.
type StreamInfo struct {
	SampleRate int
	Channels   int
	Codec      string
	Duration   float64
}

// FFmpegSource decodes any container ffmpeg understands into raw float64
// samples, keeping the source channel layout.
type FFmpegSource struct {
	config *FFmpegConfig
}

func NewFFmpegSource(config *FFmpegConfig) *FFmpegSource {
	if config == nil {
		config = DefaultFFmpegConfig()
	}
	return &FFmpegSource{config: config}
}

// Decode probes path for its stream layout and pipes it through ffmpeg.
func (s *FFmpegSource) Decode(ctx context.Context, path string) (audio.Raw, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "ffmpeg_source",
		"function":  "Decode",
		"path":      path,
	})

	info, err := s.Probe(ctx, path)
	if err != nil {
		logger.Error(err, "Failed to probe audio file")
		return audio.Raw{}, audio.NewLoadError(path, err)
	}

	sampleRate := info.SampleRate
	if s.config.TargetSampleRate > 0 {
		sampleRate = s.config.TargetSampleRate
	}

	args := s.buildArgs(path, info.Channels, sampleRate)
	logger.Debug("Running ffmpeg command", logging.Fields{
		"args": strings.Join(args, " "),
	})

	output, err := s.run(ctx, s.config.FFmpegPath, args)
	if err != nil {
		logger.Error(err, "FFmpeg decode failed")
		return audio.Raw{}, audio.NewLoadError(path, fmt.Errorf("ffmpeg decode failed: %w", err))
	}

	samples := bytesToFloat64(output)
	logger.Debug("Decoding completed", logging.Fields{
		"codec":       info.Codec,
		"channels":    info.Channels,
		"sample_rate": sampleRate,
		"samples":     len(samples),
	})

	return audio.Raw{
		Source:     path,
		SampleRate: sampleRate,
		Channels:   info.Channels,
		Samples:    samples,
	}, nil
}

// Probe uses ffprobe to get audio information from a file
func (s *FFmpegSource) Probe(ctx context.Context, path string) (*StreamInfo, error) {
	args := []string{
		"-v", "quiet", // Suppress verbose output
		"-print_format", "json", // JSON output
		"-show_streams",          // Show stream info
		"-select_streams", "a:0", // First audio stream only
		path,
	}

	output, err := s.run(ctx, s.config.FFprobePath, args)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbeOutput(output)
}

func (s *FFmpegSource) run(ctx context.Context, bin string, args []string) ([]byte, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	output, err := exec.CommandContext(ctx, bin, args...).Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("%w, stderr: %s", err, strings.TrimSpace(string(exitError.Stderr)))
		}
		return nil, err
	}
	return output, nil
}

// buildArgs builds the ffmpeg arguments for decoding path to interleaved
// float64 on stdout.
func (s *FFmpegSource) buildArgs(path string, channels, sampleRate int) []string {
	args := []string{
		"-i", path,
		"-f", "f64le", // Output raw float64 little-endian
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(sampleRate),
	}

	if s.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.2f", s.config.MaxDuration.Seconds()))
	}

	// Suppress ffmpeg output
	return append(args, "-v", "error", "pipe:1")
}

func parseProbeOutput(jsonData []byte) (*StreamInfo, error) {
	var probe struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
			Duration   string `json:"duration"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return nil, errors.New("no audio streams found")
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %q", stream.SampleRate)
	}

	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		duration = 0
	}

	return &StreamInfo{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
	}, nil
}

// bytesToFloat64 converts raw float64 bytes to []float64
func bytesToFloat64(data []byte) []float64 {
	// Trim to multiple of 8 bytes
	data = data[:len(data)-len(data)%8]
	if len(data) == 0 {
		return nil
	}

	samples := make([]float64, len(data)/8)
	for i := range samples {
		samples[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return samples
}
