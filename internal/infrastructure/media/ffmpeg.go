// Package media shells out to ffmpeg/ffprobe for audio preparation.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ProbeDuration returns the duration of an audio or video file in seconds.
func ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	raw := strings.TrimSpace(out.String())
	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned unparseable duration %q: %w", raw, err)
	}
	return duration, nil
}

// ExtractAudio converts the input to mono 16kHz WAV, the format the
// recognition engine expects. Returns the path to the converted file.
func ExtractAudio(ctx context.Context, inputPath string, workDir string) (string, error) {
	if workDir == "" {
		workDir = os.TempDir()
	}
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	out := filepath.Join(workDir, base+"_audio_16k.wav")

	// ffmpeg -y -i input -ac 1 -ar 16000 -f wav output
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-i", inputPath,
		"-ac", "1", "-ar", "16000",
		"-f", "wav",
		out,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// ExtractRange cuts [startSec, startSec+durationSec) out of the input
// into its own WAV file. The caller owns cleanup of the returned path.
func ExtractRange(ctx context.Context, inputPath string, startSec, durationSec float64, workDir string) (string, error) {
	if durationSec <= 0 {
		return "", fmt.Errorf("range duration must be positive, got %v", durationSec)
	}
	if workDir == "" {
		workDir = os.TempDir()
	}

	tmp, err := os.CreateTemp(workDir, "segment_*.wav")
	if err != nil {
		return "", fmt.Errorf("create segment file: %w", err)
	}
	out := tmp.Name()
	tmp.Close()

	// -ss before -i seeks on the demuxer, which is fast and accurate
	// enough for WAV input.
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-ss", formatSeconds(startSec),
		"-t", formatSeconds(durationSec),
		"-i", inputPath,
		"-ac", "1", "-ar", "16000",
		"-f", "wav",
		out,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(out)
		return "", fmt.Errorf("ffmpeg range extract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
