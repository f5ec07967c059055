// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package ogr

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/metrics"
	"github.com/tomtom215/geoimport/internal/models"
)

// RunnerConfig configures process execution.
type RunnerConfig struct {
	// Timeout bounds one invocation. Default: 30 minutes.
	Timeout time.Duration

	// OutputLimit is the number of trailing bytes kept per stream. Default: 64 KiB.
	OutputLimit int

	// SpawnRate and SpawnBurst bound how quickly new processes start.
	// A zero SpawnRate disables the limit.
	SpawnRate  float64
	SpawnBurst int

	// WaitDelay bounds how long Wait blocks for output pipes after the
	// process was killed. Default: 5 seconds.
	WaitDelay time.Duration
}

// DefaultRunnerConfig returns production defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Timeout:     30 * time.Minute,
		OutputLimit: 64 << 10,
		SpawnRate:   2,
		SpawnBurst:  4,
		WaitDelay:   5 * time.Second,
	}
}

// Result describes a finished invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration

	// StderrTruncated is set when Stderr lost its head to OutputLimit.
	StderrTruncated bool
}

// Runner executes conversion commands.
type Runner struct {
	cfg     RunnerConfig
	limiter *rate.Limiter
}

// NewRunner creates a Runner, filling unset fields from DefaultRunnerConfig.
func NewRunner(cfg RunnerConfig) *Runner {
	def := DefaultRunnerConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.OutputLimit <= 0 {
		cfg.OutputLimit = def.OutputLimit
	}
	if cfg.WaitDelay <= 0 {
		cfg.WaitDelay = def.WaitDelay
	}
	if cfg.SpawnBurst <= 0 {
		cfg.SpawnBurst = 1
	}

	lim := rate.NewLimiter(rate.Inf, 0)
	if cfg.SpawnRate > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.SpawnRate), cfg.SpawnBurst)
	}
	return &Runner{cfg: cfg, limiter: lim}
}

// gdalErrorLine matches error lines GDAL prints while still exiting 0.
var gdalErrorLine = regexp.MustCompile(`(?m)^ERROR \d+:`)

// Run executes cmd and waits for it. Non-zero exits, GDAL error lines on
// stderr, and timeouts fail with ErrConversionFailed carrying a stderr
// excerpt. Cancellation of ctx fails with ErrCancelled. In both cases the
// whole process group is killed.
func (r *Runner) Run(ctx context.Context, cmd *Command) (*Result, error) {
	tool := filepath.Base(cmd.Path)

	if err := r.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, models.Wrap(models.ErrCancelled, ctx.Err(), "conversion cancelled before start")
		}
		return nil, models.Wrap(models.ErrConversionFailed, err, "conversion could not be scheduled")
	}

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	stdout := newTailBuffer(r.cfg.OutputLimit)
	stderr := newTailBuffer(r.cfg.OutputLimit)

	c := exec.CommandContext(runCtx, cmd.Path, cmd.Args...)
	c.Stdout = stdout
	c.Stderr = stderr
	c.WaitDelay = r.cfg.WaitDelay
	configureProcessGroup(c)

	log := logging.Ctx(ctx)
	log.Debug().Str("command", cmd.String()).Msg("Starting conversion")

	start := time.Now()
	err := c.Run()
	res := &Result{
		ExitCode: c.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),

		StderrTruncated: stderr.Truncated(),
	}

	switch {
	case ctx.Err() != nil:
		metrics.RecordProcessExit(tool, res.Duration, res.ExitCode, "cancelled")
		log.Warn().Dur("duration", res.Duration).Msg("Conversion cancelled, process group killed")
		return res, models.Wrap(models.ErrCancelled, ctx.Err(), "conversion cancelled")

	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		metrics.RecordProcessExit(tool, res.Duration, res.ExitCode, "timeout")
		log.Error().Dur("timeout", r.cfg.Timeout).Msg("Conversion timed out, process group killed")
		return res, models.Wrap(models.ErrConversionFailed, runCtx.Err(),
			fmt.Sprintf("%s timed out after %s%s", tool, r.cfg.Timeout, excerptSuffix(res)))

	case err != nil:
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			metrics.RecordProcessExit(tool, res.Duration, -1, "spawn_error")
			return res, models.Wrap(models.ErrConversionFailed, err, fmt.Sprintf("%s could not be started", tool))
		}
		metrics.RecordProcessExit(tool, res.Duration, res.ExitCode, "")
		log.Error().Int("exit_code", res.ExitCode).Str("stderr", res.StderrExcerpt()).Msg("Conversion failed")
		return res, models.Wrap(models.ErrConversionFailed, err,
			fmt.Sprintf("%s exited with status %d%s", tool, res.ExitCode, excerptSuffix(res)))

	case gdalErrorLine.MatchString(res.Stderr):
		metrics.RecordProcessExit(tool, res.Duration, res.ExitCode, "")
		log.Error().Str("stderr", res.StderrExcerpt()).Msg("Conversion reported errors")
		return res, models.Errorf(models.ErrConversionFailed, "%s reported errors%s", tool, excerptSuffix(res))
	}

	metrics.RecordProcessExit(tool, res.Duration, res.ExitCode, "")
	log.Info().Dur("duration", res.Duration).Msg("Conversion completed")
	return res, nil
}

// excerptLimit bounds the stderr text carried in error messages.
const excerptLimit = 512

// Excerpt returns the trailing part of tool output suitable for an error message.
func Excerpt(s string) string {
	return excerpt(s, false)
}

// StderrExcerpt returns the excerpt of Stderr, marked when the runner
// already dropped its head.
func (r *Result) StderrExcerpt() string {
	return excerpt(r.Stderr, r.StderrTruncated)
}

func excerpt(s string, truncated bool) string {
	s = strings.TrimSpace(s)
	if len(s) > excerptLimit {
		s, truncated = s[len(s)-excerptLimit:], true
	}
	if truncated && s != "" {
		return "..." + s
	}
	return s
}

func excerptSuffix(res *Result) string {
	if e := res.StderrExcerpt(); e != "" {
		return ": " + e
	}
	return ""
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu        sync.Mutex
	buf       []byte
	limit     int
	truncated bool
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(p)
	if n >= t.limit {
		t.buf = append(t.buf[:0], p[n-t.limit:]...)
		t.truncated = true
		return n, nil
	}
	if over := len(t.buf) + n - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
		t.truncated = true
	}
	t.buf = append(t.buf, p...)
	return n, nil
}

// Truncated reports whether earlier output was dropped.
func (t *tailBuffer) Truncated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.truncated
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
