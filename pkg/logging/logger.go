package logging

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/DeRuina/timberjack"
	"github.com/mynaparrot/plugnmeet-speech/pkg/config"
	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger from the log settings.
// Output always goes to stdout, and to a rotated file as well when log_file is set.
func NewLogger(cfg *config.LogSettings) (*logrus.Logger, error) {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg *config.LogSettings, stdout io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()

	level := logrus.InfoLevel
	if cfg.LogLevel != nil && *cfg.LogLevel != "" {
		lv, err := logrus.ParseLevel(strings.ToLower(*cfg.LogLevel))
		if err != nil {
			return nil, fmt.Errorf("invalid log_level: %w", err)
		}
		level = lv
	}
	logger.SetLevel(level)

	output := stdout
	if cfg.LogFile != "" {
		fileLogger := &timberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
		}
		output = io.MultiWriter(stdout, fileLogger)
	}
	logger.SetOutput(output)

	// the caller is rendered by SourceFormatter as x_file_source
	noCaller := func(f *runtime.Frame) (string, string) {
		return "", ""
	}

	var underlying logrus.Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		underlying = &logrus.TextFormatter{
			FullTimestamp:    true,
			CallerPrettyfier: noCaller,
		}
	case "json":
		underlying = &logrus.JSONFormatter{
			CallerPrettyfier: noCaller,
		}
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	logger.SetFormatter(&SourceFormatter{
		Underlying: underlying,
	})
	logger.SetReportCaller(true)

	if cfg.LogFile != "" {
		logger.WithField("file", cfg.LogFile).Info("file logging enabled")
	}

	return logger, nil
}
