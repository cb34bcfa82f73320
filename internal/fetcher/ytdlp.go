package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	DefaultPath    = "yt-dlp"
	DefaultTimeout = 30 * time.Minute

	dateLayout     = "20060102"
	maxStderrBytes = 2048
	waitDelay      = 10 * time.Second
)

var (
	ErrTimeout      = errors.New("fetch timed out")
	ErrNotInstalled = errors.New("fetcher executable not found")
	ErrExitStatus   = errors.New("fetcher exited with failure")
)

// Error reports a failed fetcher invocation. Documents written before the
// failure are still on disk.
type Error struct {
	Channel string
	Stderr  string
	Err     error
}

func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("fetch %s: %v: %s", e.Channel, e.Err, e.Stderr)
	}
	return fmt.Sprintf("fetch %s: %v", e.Channel, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config holds yt-dlp settings.
type Config struct {
	Path      string
	Timeout   time.Duration
	ExtraArgs []string
}

// YtDlp writes one info document per video into a directory by running
// yt-dlp without downloading any media.
type YtDlp struct {
	path      string
	timeout   time.Duration
	extraArgs []string
	logger    *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *YtDlp {
	y := &YtDlp{
		path:      cfg.Path,
		timeout:   cfg.Timeout,
		extraArgs: cfg.ExtraArgs,
		logger:    logger.With("component", "fetcher"),
	}
	if y.path == "" {
		y.path = DefaultPath
	}
	if y.timeout <= 0 {
		y.timeout = DefaultTimeout
	}
	return y
}

// Fetch asks yt-dlp for every video of channelURL published on or after the
// given date. The bound is enforced by yt-dlp alone.
func (y *YtDlp) Fetch(ctx context.Context, channelURL string, after time.Time, dir string) error {
	cmdCtx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	args := y.args(channelURL, after, dir)
	cmd := exec.CommandContext(cmdCtx, y.path, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	y.logger.Debug("running fetcher", "path", y.path, "args", args)

	start := time.Now()
	err := cmd.Run()
	if err == nil {
		y.logger.Debug("fetcher finished", "channel", channelURL, "elapsed", time.Since(start))
		return nil
	}

	switch {
	case errors.Is(cmdCtx.Err(), context.DeadlineExceeded):
		return &Error{Channel: channelURL, Err: fmt.Errorf("%w after %s", ErrTimeout, y.timeout)}
	case errors.Is(cmdCtx.Err(), context.Canceled):
		return &Error{Channel: channelURL, Err: context.Canceled}
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return &Error{Channel: channelURL, Err: fmt.Errorf("%w: %s", ErrNotInstalled, y.path)}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &Error{
			Channel: channelURL,
			Stderr:  tail(stderr.String(), maxStderrBytes),
			Err:     fmt.Errorf("%w: code %d", ErrExitStatus, exitErr.ExitCode()),
		}
	}

	return &Error{Channel: channelURL, Err: err}
}

func (y *YtDlp) args(channelURL string, after time.Time, dir string) []string {
	args := []string{
		"--ignore-errors",
		"--write-info-json",
		"--no-write-playlist-metafiles",
		"--compat-options", "no-playlist-metafiles",
		"--skip-download",
		"--dateafter", after.Format(dateLayout),
		"--paths", dir,
	}
	args = append(args, y.extraArgs...)
	return append(args, channelURL)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
