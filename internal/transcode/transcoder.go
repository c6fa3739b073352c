// SPDX-License-Identifier: MIT

// Package transcode converts lossless audio files to the compressed
// distribution format by invoking an external encoder process.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	azdlog "github.com/audiofabrik/albumzipd/internal/log"
	"github.com/audiofabrik/albumzipd/internal/metrics"
)

// Encoder is the narrow contract the pipeline consumes; tests substitute
// fakes for the ffmpeg-backed implementation.
type Encoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string) error
}

// Transcoder runs ffmpeg to encode one input file into one MP3 output
// file at a fixed bitrate. One invocation per input/output pair;
// completion is the process exit.
type Transcoder struct {
	Bin         string
	BitrateKbps int
	Timeout     time.Duration
}

// New returns a Transcoder with defaults applied.
func New(bin string, bitrateKbps int, timeout time.Duration) *Transcoder {
	if bin == "" {
		bin = "ffmpeg"
	}
	if bitrateKbps <= 0 {
		bitrateKbps = 192
	}
	return &Transcoder{Bin: bin, BitrateKbps: bitrateKbps, Timeout: timeout}
}

func (t *Transcoder) args(inputPath, outputPath string) []string {
	return []string{
		"-nostdin",
		"-hide_banner",
		"-y",
		"-i", inputPath,
		"-codec:a", "libmp3lame",
		"-b:a", strconv.Itoa(t.BitrateKbps) + "k",
		outputPath,
	}
}

// Transcode encodes inputPath into outputPath and waits for the encoder
// to exit. outputPath is only valid to read after a nil return. A
// configured timeout bounds the invocation so a hung encoder cannot
// stall the whole run.
func (t *Transcoder) Transcode(ctx context.Context, inputPath, outputPath string) error {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	logger := azdlog.WithComponentFromContext(ctx, "transcode")
	stderr := newLineRing(20)
	start := time.Now()

	cmd := exec.CommandContext(ctx, t.Bin, t.args(inputPath, outputPath)...)
	cmd.Stderr = stderr

	err := cmd.Run()
	duration := time.Since(start)
	metrics.TranscodeDuration.Observe(duration.Seconds())

	if err != nil {
		metrics.TranscodeErrors.WithLabelValues(classifyError(ctx, err)).Inc()
		tail := strings.Join(stderr.LastN(5), " | ")
		logger.Error().
			Err(err).
			Str("event", "transcode.failed").
			Str("input", inputPath).
			Str("stderr_tail", tail).
			Dur("duration", duration).
			Msg("encoder invocation failed")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("transcode %s: %w", inputPath, ctxErr)
		}
		return fmt.Errorf("transcode %s: %w (stderr: %s)", inputPath, err, tail)
	}

	logger.Debug().
		Str("event", "transcode.done").
		Str("input", inputPath).
		Str("output", outputPath).
		Dur("duration", duration).
		Msg("track transcoded")
	return nil
}

func classifyError(ctx context.Context, err error) string {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, exec.ErrNotFound):
		return "missing_binary"
	default:
		return "exit"
	}
}
