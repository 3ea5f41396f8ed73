package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dyike/CortexDash/config"
)

// New builds the process logger. When cfg.LogFile is set, output goes there
// and the returned closer releases the file; otherwise logs go to stderr.
func New(cfg *config.Config) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level := logrus.WarnLevel
	if s := strings.TrimSpace(cfg.LogLevel); s != "" {
		parsed, err := logrus.ParseLevel(s)
		if err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
		level = parsed
	}
	if cfg.Debug {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)

	closer, err := SetOutput(log, cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}
	return log, closer, nil
}

// SetOutput points log at path, or at stderr when path is empty. The caller
// closes the returned closer once log no longer writes there.
func SetOutput(log *logrus.Logger, path string) (io.Closer, error) {
	if path == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
