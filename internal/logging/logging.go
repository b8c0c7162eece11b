package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures Setup.
type Options struct {
	Level string
	// Dir is where the session log file goes. Empty disables the file.
	Dir          string
	Name         string
	SessionStart time.Time
	// Console receives coloured output. Nil means stdout.
	Console io.Writer
	// GraylogAddress enables GELF shipping when set.
	GraylogAddress string
}

// Manager owns the writers behind a logger.
type Manager struct {
	Logger   zerolog.Logger
	FilePath string

	file   *lumberjack.Logger
	gelf   *gelf.Writer
	closed bool
}

// LogFilePath builds a log file path using OS-appropriate path separators.
func LogFilePath(logsDir, name string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", name, sessionStart.Format("20060102_150405")),
	)
}

// ParseLevel maps a config level name to a zerolog level. Unknown names
// are INFO.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Setup builds a logger writing to the console, the rotated session log
// file and Graylog, whichever are configured.
func Setup(opts Options) (*Manager, error) {
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: time.RFC3339,
		},
	}

	m := &Manager{}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
		start := opts.SessionStart
		if start.IsZero() {
			start = time.Now()
		}
		m.FilePath = LogFilePath(opts.Dir, opts.Name, start)
		m.file = &lumberjack.Logger{
			Filename:   m.FilePath,
			MaxSize:    64, // MB
			MaxBackups: 3,
			MaxAge:     7,
		}
		// console format without colors to file
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        m.file,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
	}

	if opts.GraylogAddress != "" {
		w, err := gelf.NewWriter(opts.GraylogAddress)
		if err != nil {
			m.closeWriters()
			return nil, fmt.Errorf("failed to connect to graylog at %s: %w", opts.GraylogAddress, err)
		}
		m.gelf = w
		writers = append(writers, w)
	}

	m.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(opts.Level)).
		With().Timestamp().Str("app", opts.Name).Logger()

	m.Logger.Debug().Str("loglevel", m.Logger.GetLevel().String()).Str("file", m.FilePath).Msg("Logging set up")
	return m, nil
}

// Close flushes and releases the file and network writers.
func (m *Manager) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	return m.closeWriters()
}

func (m *Manager) closeWriters() error {
	var firstErr error
	if m.file != nil {
		if err := m.file.Close(); err != nil {
			firstErr = err
		}
	}
	if m.gelf != nil {
		if err := m.gelf.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
