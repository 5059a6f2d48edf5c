package providers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"sud/internal/structures"
)

type TypeEnum int

// Log channels, one file per functional area.
const (
	TypeApp TypeEnum = iota
	TypeHttp
	TypeTimer
	TypeGoals
)

var logFileNames = map[TypeEnum]string{
	TypeApp:   "app.log",
	TypeHttp:  "http.log",
	TypeTimer: "timer.log",
	TypeGoals: "goals.log",
}

type Logger interface {
	Errorf(logType TypeEnum, format string, args ...interface{})
	Warnf(logType TypeEnum, format string, args ...interface{})
	Infof(logType TypeEnum, format string, args ...interface{})
	Debugf(logType TypeEnum, format string, args ...interface{})
	Fatalf(logType TypeEnum, format string, args ...interface{})
	Close()
}

type LogProvider struct {
	loggers map[TypeEnum]zerolog.Logger
	files   []*os.File
}

func NewLogProvider(conf *structures.Config) (Logger, error) {
	level, err := zerolog.ParseLevel(conf.Logger.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", conf.Logger.Level, err)
	}

	provider := &LogProvider{
		loggers: make(map[TypeEnum]zerolog.Logger, len(logFileNames)),
	}
	for logType, name := range logFileNames {
		file, err := os.OpenFile(
			filepath.Join(conf.Logger.Dir, name),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND,
			os.FileMode(conf.Logger.Mode),
		)
		if err != nil {
			provider.Close()
			return nil, fmt.Errorf("cannot open log file %s: %w", name, err)
		}
		provider.files = append(provider.files, file)

		var out io.Writer = file
		if conf.Debug {
			out = zerolog.MultiLevelWriter(file, zerolog.ConsoleWriter{Out: os.Stderr})
		}
		provider.loggers[logType] = zerolog.New(out).With().Timestamp().Logger().Level(level)
	}

	return provider, nil
}

func (l *LogProvider) Errorf(logType TypeEnum, format string, args ...interface{}) {
	logger := l.loggers[logType]
	logger.Error().Msgf(format, args...)
}

func (l *LogProvider) Warnf(logType TypeEnum, format string, args ...interface{}) {
	logger := l.loggers[logType]
	logger.Warn().Msgf(format, args...)
}

func (l *LogProvider) Infof(logType TypeEnum, format string, args ...interface{}) {
	logger := l.loggers[logType]
	logger.Info().Msgf(format, args...)
}

func (l *LogProvider) Debugf(logType TypeEnum, format string, args ...interface{}) {
	logger := l.loggers[logType]
	logger.Debug().Msgf(format, args...)
}

func (l *LogProvider) Fatalf(logType TypeEnum, format string, args ...interface{}) {
	logger := l.loggers[logType]
	logger.Fatal().Msgf(format, args...)
}

func (l *LogProvider) Close() {
	for _, file := range l.files {
		_ = file.Close()
	}
}
