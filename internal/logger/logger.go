// Package logger provides a small level-filtered console logger for
// the selection engine's CLI: colorized when writing to a terminal,
// plain text otherwise.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Log level constants for filtering.
const (
	LevelTrace int = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

func levelName(l int) string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "LOG"
	}
}

func levelColor(l int) *color.Color {
	switch l {
	case LevelTrace, LevelDebug:
		return color.New(color.FgHiBlack)
	case LevelWarn:
		return color.New(color.FgYellow)
	case LevelError:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgCyan)
	}
}

// Logger writes level-filtered, optionally colorized lines to an
// output stream.
type Logger struct {
	out     io.Writer
	level   int
	colored bool
}

// New returns a Logger writing to out at the given minimum level. Color
// is enabled automatically when out is a terminal.
func New(out *os.File, level int) *Logger {
	return &Logger{
		out:     out,
		level:   level,
		colored: isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()),
	}
}

// Default returns a Logger at LevelInfo writing to stderr, the
// convention this codebase's CLI entrypoint uses so that stdout stays
// reserved for a command's actual result.
func Default() *Logger {
	return New(os.Stderr, LevelInfo)
}

func (l *Logger) log(level int, format string, args ...any) {
	if level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	label := levelName(level)
	if l.colored {
		levelColor(level).Fprintf(l.out, "[%s] ", label)
		fmt.Fprintln(l.out, msg)
		return
	}
	fmt.Fprintf(l.out, "[%s] %s\n", label, msg)
}

// Tracef logs at LevelTrace.
func (l *Logger) Tracef(format string, args ...any) { l.log(LevelTrace, format, args...) }

// Debugf logs at LevelDebug.
func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, format, args...) }

// Infof logs at LevelInfo.
func (l *Logger) Infof(format string, args ...any) { l.log(LevelInfo, format, args...) }

// Warnf logs at LevelWarn.
func (l *Logger) Warnf(format string, args ...any) { l.log(LevelWarn, format, args...) }

// Errorf logs at LevelError.
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, format, args...) }

// ReportWidth returns the terminal column width to render a state
// report at, falling back to 80 columns when stdout is not a
// terminal or its size cannot be determined.
func ReportWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
