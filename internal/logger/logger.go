package logger

import (
	"io"
	"log"
	"os"
	"sync"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"

	"github.com/Alexander-D-Karpov/blockfs/internal/config"
)

const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

var (
	level = config.LogLevelInfo
	out   = log.New(os.Stderr, "", log.LstdFlags)
	color = isTerminal(os.Stderr)
	mu    sync.RWMutex
)

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func SetLevel(l config.LogLevel) {
	mu.Lock()
	level = l
	mu.Unlock()
}

func GetLevel() config.LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// SetOutput redirects log lines to w. Colour is kept only when w is a terminal.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = log.New(w, "", log.LstdFlags)
	if f, ok := w.(*os.File); ok {
		color = isTerminal(f)
	} else {
		color = false
	}
}

func Debug(format string, args ...interface{}) {
	if GetLevel() <= config.LogLevelDebug {
		emit("[DEBUG] ", colorGray, format, args...)
	}
}

func Info(format string, args ...interface{}) {
	if GetLevel() <= config.LogLevelInfo {
		emit("[INFO] ", "", format, args...)
	}
}

func Warn(format string, args ...interface{}) {
	if GetLevel() <= config.LogLevelWarn {
		emit("[WARN] ", colorYellow, format, args...)
	}
}

func Error(format string, args ...interface{}) {
	if GetLevel() <= config.LogLevelError {
		emit("[ERROR] ", colorRed, format, args...)
	}
}

func emit(prefix, tint, format string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()

	line := prefix + l10n.F(format, args...)
	if color && tint != "" {
		line = tint + line + colorReset
	}
	out.Print(line)
}
