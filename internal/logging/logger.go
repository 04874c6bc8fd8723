package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	gokitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Options selects the logger output. An empty File logs to w only.
type Options struct {
	Level  string
	Format string
	File   string
}

// NewLogger builds a leveled logger writing to w and, when opts.File is set,
// to that file as well. The returned closer releases the file.
func NewLogger(w io.Writer, opts Options) (gokitlog.Logger, io.Closer, error) {
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(w, file)
		closer = file
	}

	var logger gokitlog.Logger
	switch strings.ToLower(opts.Format) {
	case "", "logfmt":
		logger = gokitlog.NewLogfmtLogger(gokitlog.NewSyncWriter(w))
	case "json":
		logger = gokitlog.NewJSONLogger(gokitlog.NewSyncWriter(w))
	default:
		closer.Close()
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	allow, err := levelOption(opts.Level)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	// The filter sits under the context so that level.X(logger) extends the
	// same context and DefaultCaller still resolves to the calling line.
	logger = level.NewFilter(logger, allow)
	logger = gokitlog.With(logger, "ts", gokitlog.DefaultTimestampUTC, "caller", gokitlog.DefaultCaller)
	return logger, closer, nil
}

func levelOption(name string) (level.Option, error) {
	switch strings.ToLower(name) {
	case "debug":
		return level.AllowDebug(), nil
	case "", "info":
		return level.AllowInfo(), nil
	case "warn", "warning":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	case "none":
		return level.AllowNone(), nil
	default:
		return nil, fmt.Errorf("unknown log level %q", name)
	}
}

// ValidLevel reports whether name is accepted by NewLogger.
func ValidLevel(name string) bool {
	_, err := levelOption(name)
	return err == nil
}

// Timed logs how long fn took and whether it failed.
func Timed(logger gokitlog.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	if err != nil {
		level.Error(logger).Log("msg", name+" failed", "err", err, "took", time.Since(start))
		return err
	}
	level.Debug(logger).Log("msg", name+" done", "took", time.Since(start))
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
