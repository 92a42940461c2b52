package config

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

var root = &logrus.Logger{
	Out: os.Stderr,
	Formatter: &CustomTextFormatter{
		logrus.TextFormatter{
			FullTimestamp: true,
		},
	},
	Hooks: make(logrus.LevelHooks),
	Level: logrus.InfoLevel,
}

// NamedLogger creates named package logger. All named loggers share one
// output and level.
func NamedLogger(name string) *logrus.Entry {
	return root.WithField("component", name)
}

// SetLogLevel sets the level of every named logger.
func SetLogLevel(level string) error {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	root.SetLevel(lvl)
	return nil
}

// SetLogOutput redirects every named logger.
func SetLogOutput(w io.Writer) {
	root.SetOutput(w)
}

// CustomTextFormatter prefixes each message with the caller's file and line.
type CustomTextFormatter struct {
	logrus.TextFormatter
}

// Format renders a single log entry. The prefix goes on a copy, so an
// entry formatted twice is prefixed once each time.
func (f *CustomTextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	file, no, ok := caller()
	if !ok {
		return f.TextFormatter.Format(entry)
	}
	e := *entry
	e.Message = fmt.Sprintf("[%-15s:%03d]%s", path.Base(file), no, entry.Message)
	return f.TextFormatter.Format(&e)
}

// caller returns the first frame outside logrus.
func caller() (string, int, bool) {
	for skip := 2; skip < 16; skip++ {
		pc, file, no, ok := runtime.Caller(skip)
		if !ok {
			return "", 0, false
		}
		fn := runtime.FuncForPC(pc)
		if fn != nil && strings.Contains(fn.Name(), "sirupsen/logrus") {
			continue
		}
		return file, no, true
	}
	return "", 0, false
}
