// Package log is the logging layer of the amora SDK. It is a small veneer
// over log/slog tuned for protocol code: loggers carry a dotted scope path
// identifying the SDK component that emitted a record, and on-chain values
// are logged through the Felt attribute in canonical hex so entries line up
// with block explorers and registry state.
package log

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Options configures a root logger. The zero value logs JSON to stderr at
// Info level.
type Options struct {
	// Level is the minimum level emitted.
	Level slog.Level

	// Output is the destination stream. Defaults to stderr.
	Output io.Writer

	// Text switches from the JSON handler to the human-readable text
	// handler.
	Text bool
}

// Logger emits structured records tagged with a component scope.
type Logger struct {
	inner *slog.Logger
	scope string
}

// New creates a root logger from the given options.
func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: opts.Level}
	var h slog.Handler
	if opts.Text {
		h = slog.NewTextHandler(out, ho)
	} else {
		h = slog.NewJSONHandler(out, ho)
	}
	return &Logger{inner: slog.New(h)}
}

// Discard returns a logger that drops every record. Callers embedding the
// SDK as a silent library pass it through Config.
func Discard() *Logger {
	return &Logger{inner: slog.New(slog.DiscardHandler)}
}

// defaultLogger is used by components that were not handed a logger.
var defaultLogger = New(Options{})

// Default returns the process-wide fallback logger.
func Default() *Logger {
	return defaultLogger
}

// SetDefault replaces the process-wide fallback logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Scope returns a child logger whose records carry the given component
// name, appended dotted-path style: Scope("client") then Scope("scan")
// yields "client.scan".
func (l *Logger) Scope(name string) *Logger {
	s := name
	if l.scope != "" {
		s = l.scope + "." + name
	}
	return &Logger{inner: l.inner, scope: s}
}

// With returns a child logger with additional key-value context attached to
// every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{inner: l.inner.With(args...), scope: l.scope}
}

func (l *Logger) emit(level slog.Level, msg string, args []any) {
	if l.scope != "" {
		args = append([]any{slog.String("scope", l.scope)}, args...)
	}
	l.inner.Log(context.Background(), level, msg, args...)
}

// Debug logs at LevelDebug.
func (l *Logger) Debug(msg string, args ...any) { l.emit(slog.LevelDebug, msg, args) }

// Info logs at LevelInfo.
func (l *Logger) Info(msg string, args ...any) { l.emit(slog.LevelInfo, msg, args) }

// Warn logs at LevelWarn.
func (l *Logger) Warn(msg string, args ...any) { l.emit(slog.LevelWarn, msg, args) }

// Error logs at LevelError.
func (l *Logger) Error(msg string, args ...any) { l.emit(slog.LevelError, msg, args) }

// Felt renders an on-chain value (address, public key, transaction hash) as
// a canonical 0x-hex attribute.
func Felt(key string, v *big.Int) slog.Attr {
	if v == nil {
		return slog.String(key, "<nil>")
	}
	return slog.String(key, hexutil.EncodeBig(v))
}

// Err renders an error under the conventional "err" key.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("err", "<nil>")
	}
	return slog.String("err", err.Error())
}
