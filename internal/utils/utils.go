package utils

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/andresmejia3/interviewlens/internal/types"
)

// --- 1. Process Safety & Command Wrapping ---

// SafeCommand wraps a standard exec.Cmd with a buffer to catch Stderr (engine logs)
// This ensures we don't lose critical crash information if a worker dies.
type SafeCommand struct {
	*exec.Cmd
	Stderr *bytes.Buffer
}

// NewSafeCommand initializes a command and attaches a buffer to its Stderr pipe
// It prepares the command for execution but does not start it.
func NewSafeCommand(name string, args ...string) *SafeCommand {
	return wrap(exec.Command(name, args...))
}

// NewSafeCommandContext is NewSafeCommand bound to ctx; the process is killed when ctx ends.
func NewSafeCommandContext(ctx context.Context, name string, args ...string) *SafeCommand {
	return wrap(exec.CommandContext(ctx, name, args...))
}

func wrap(cmd *exec.Cmd) *SafeCommand {
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	return &SafeCommand{Cmd: cmd, Stderr: stderr}
}

// Logs returns the captured stderr, trimmed.
func (s *SafeCommand) Logs() string {
	if s == nil || s.Stderr == nil {
		return ""
	}
	return strings.TrimSpace(s.Stderr.String())
}

// Die is the unified exit strategy for the CLI.
// It prints a formatted error box and dumps engine logs if a SafeCommand is provided.
func Die(context string, err error, s *SafeCommand) {
	fmt.Fprintf(os.Stderr, "\n---------------------------------------------------------\n")
	fmt.Fprintf(os.Stderr, "🚨 INTERVIEWLENS ERROR: %s\n", context)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DETAILS: %v\n", err)
	}

	// If we have a SafeCommand and it captured logs, print them.
	if logs := s.Logs(); logs != "" {
		fmt.Fprintf(os.Stderr, "\nENGINE LOGS:\n%s\n", logs)
	}
	fmt.Fprintf(os.Stderr, "---------------------------------------------------------\n")
	os.Exit(1)
}

// RequireBinary reports whether an external tool is on PATH.
func RequireBinary(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return errors.Wrapf(err, "%s not found", name)
	}
	return nil
}

// --- 2. Video Engine (Shared by Sampler & Transcriber) ---

var (
	JpegSOI = []byte{0xFF, 0xD8} // Start of Image
	JpegEOI = []byte{0xFF, 0xD9} // End of Image
)

type ffprobeOutput struct {
	Streams []struct {
		CodecType     string `json:"codec_type"`
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		NbFrames      string `json:"nb_frames"`
		NbReadPackets string `json:"nb_read_packets"`
		AvgFrameRate  string `json:"avg_frame_rate"`
		RFrameRate    string `json:"r_frame_rate"`
		Duration      string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads stream metadata with ffprobe. A file ffprobe cannot parse, or one without a
// video stream, is an UnsupportedMediaError.
func Probe(ctx context.Context, path string) (types.VideoAsset, error) {
	if err := RequireBinary("ffprobe"); err != nil {
		return types.VideoAsset{}, &types.UnsupportedMediaError{Path: path, Err: err}
	}

	// 1. Fast Path: Container Metadata
	// This is instant but nb_frames might be "N/A" for some containers.
	probe := NewSafeCommandContext(ctx, "ffprobe", "-v", "error",
		"-show_entries", "stream=codec_type,width,height,nb_frames,avg_frame_rate,r_frame_rate,duration:format=duration",
		"-of", "json", path)
	out, err := probe.Output()
	if err != nil {
		if logs := probe.Logs(); logs != "" {
			err = errors.Wrap(err, logs)
		}
		return types.VideoAsset{}, &types.UnsupportedMediaError{Path: path, Err: err}
	}

	asset, err := ParseProbe(out)
	if err != nil {
		return types.VideoAsset{}, &types.UnsupportedMediaError{Path: path, Err: err}
	}
	asset.Path = path

	// 2. Slow Path: Count Packets
	if asset.FrameCount == 0 {
		asset.FrameCount = CountFrames(ctx, path)
	}
	return asset, nil
}

// ParseProbe turns ffprobe JSON output into a VideoAsset.
func ParseProbe(out []byte) (types.VideoAsset, error) {
	var res ffprobeOutput
	if err := json.Unmarshal(out, &res); err != nil {
		return types.VideoAsset{}, errors.Wrap(err, "ffprobe JSON parse error")
	}

	var asset types.VideoAsset
	video := false
	for _, s := range res.Streams {
		switch s.CodecType {
		case "video":
			if video {
				continue
			}
			video = true
			asset.Width, asset.Height = s.Width, s.Height
			asset.FrameCount, _ = strconv.Atoi(s.NbFrames)
			asset.FPS = ParseRate(s.AvgFrameRate)
			if asset.FPS == 0 {
				asset.FPS = ParseRate(s.RFrameRate)
			}
			asset.Duration, _ = strconv.ParseFloat(s.Duration, 64)
		case "audio":
			asset.HasAudio = true
		}
	}
	if !video {
		return types.VideoAsset{}, errors.New("no video stream")
	}
	if asset.Duration == 0 {
		asset.Duration, _ = strconv.ParseFloat(res.Format.Duration, 64)
	}
	if asset.FrameCount < 0 {
		asset.FrameCount = 0
	}
	return asset, nil
}

// ParseRate parses ffprobe rationals such as "30000/1001". Malformed or zero rates give 0.
func ParseRate(rate string) float64 {
	num, den, found := strings.Cut(rate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// CountFrames decodes packet headers to count video frames.
// It returns 0 if the count fails.
func CountFrames(ctx context.Context, path string) int {
	cmd := NewSafeCommandContext(ctx, "ffprobe", "-v", "error", "-select_streams", "v:0", "-count_packets",
		"-show_entries", "stream=nb_read_packets", "-of", "json", path)
	out, err := cmd.Output()
	if err != nil {
		return 0
	}

	var res ffprobeOutput
	if err := json.Unmarshal(out, &res); err != nil || len(res.Streams) == 0 {
		return 0
	}
	count, err := strconv.Atoi(res.Streams[0].NbReadPackets)
	if err != nil {
		return 0
	}
	return count
}

// SplitJpeg is the custom splitter for bufio.Scanner
// It locates the Start Of Image (FFD8) and End Of Image (FFD9) markers to extract full JPEG frames.
func SplitJpeg(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	start := bytes.Index(data, JpegSOI)
	if start == -1 {
		return 0, nil, nil
	}
	end := bytes.Index(data[start:], JpegEOI)
	if end == -1 {
		return 0, nil, nil
	}
	return start + end + 2, data[start : start+end+2], nil
}

// NewFFmpegCmd creates a standard decoder pipe
// It configures FFmpeg to output raw MJPEG frames to Stdout for ingestion.
func NewFFmpegCmd(ctx context.Context, inputPath string) *SafeCommand {
	// Passthrough keeps one output image per decoded frame so indexes match the source.
	return NewSafeCommandContext(ctx, "ffmpeg", "-hide_banner", "-loglevel", "error", "-i", inputPath,
		"-an", "-fps_mode", "passthrough", "-f", "image2pipe", "-vcodec", "mjpeg", "-q:v", "2", "-")
}

// NewAudioExtractCmd writes the first audio stream of inputPath as 16 kHz mono PCM WAV.
func NewAudioExtractCmd(ctx context.Context, inputPath, wavPath string) *SafeCommand {
	return NewSafeCommandContext(ctx, "ffmpeg", "-hide_banner", "-loglevel", "error", "-i", inputPath,
		"-vn", "-acodec", "pcm_s16le", "-ar", "16000", "-ac", "1", "-y", wavPath)
}

// GenerateVideoID creates a deterministic hash for the video file
// based on its path, size, and modification time.
func GenerateVideoID(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	input := fmt.Sprintf("%s-%d-%d", path, info.Size(), info.ModTime().UnixNano())
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:]), nil
}
