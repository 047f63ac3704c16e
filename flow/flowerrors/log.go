package flowerrors

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lguimbarda/kvflow/flow/core"
)

// Field names used in log records.
const (
	FieldRunID    = "run_id"
	FieldKey      = "key"
	FieldValue    = "value"
	FieldDecision = "decision"
	FieldMode     = "mode"
	FieldItems    = "items"
	FieldErrors   = "errors"
	FieldDuration = "duration"
)

// Sink receives per-item errors for logging.
type Sink interface {
	LogItemError(err error, key, value any, d core.Decision)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(err error, key, value any, d core.Decision)

func (f SinkFunc) LogItemError(err error, key, value any, d core.Decision) { f(err, key, value, d) }

type zerologSink struct{ logger zerolog.Logger }

// Zerolog logs item errors at warn level.
func Zerolog(logger zerolog.Logger) Sink {
	return zerologSink{logger: logger}
}

func (s zerologSink) LogItemError(err error, key, value any, d core.Decision) {
	s.logger.Warn().
		Err(err).
		Interface(FieldKey, key).
		Interface(FieldValue, value).
		Stringer(FieldDecision, d).
		Msg("item error")
}

type logrSink struct{ logger logr.Logger }

// Logr logs item errors through logger.Error.
func Logr(logger logr.Logger) Sink {
	return logrSink{logger: logger}
}

func (s logrSink) LogItemError(err error, key, value any, d core.Decision) {
	s.logger.Error(err, "item error", FieldKey, key, FieldValue, value, FieldDecision, d.String())
}

// Log logs every error it is consulted for and returns the decision of
// inner. A nil inner defers, which makes Log a pure observer at any position
// of the chain.
func Log(sink Sink, inner core.ErrorHandler) core.ErrorHandler {
	return core.ErrorHandlerFunc(func(err error, key, value any) core.Decision {
		d := core.Defer
		if inner != nil {
			d = inner.HandleError(err, key, value)
		}
		if sink != nil {
			sink.LogItemError(err, key, value, d)
		}
		return d
	})
}

// LogConfig selects how NewLogger writes.
type LogConfig struct {
	Level   string
	Format  string
	Output  string
	NoColor bool
}

// NewLogger creates a zerolog logger from cfg. The console and pretty formats
// use a human-readable writer; anything else writes JSON.
func NewLogger(cfg LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	out := outputWriter(cfg.Output)

	var zl zerolog.Logger
	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
		zl = NewConsoleLogger(out, cfg.NoColor)
	default:
		zl = zerolog.New(out)
	}
	return zl.Level(level).With().Timestamp().Logger()
}

// NewConsoleLogger creates a zerolog logger with a compact console writer.
func NewConsoleLogger(out io.Writer, noColor bool) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
		FormatLevel: func(i interface{}) string {
			lvl := strings.ToUpper(fmt.Sprintf("%s", i))
			short := map[string]string{
				"TRACE": "TRC", "DEBUG": "DBG", "INFO": "INF",
				"WARN": "WRN", "ERROR": "ERR", "FATAL": "FTL",
			}[lvl]
			if short == "" {
				short = lvl
			}
			if noColor {
				return "[" + short + "]"
			}
			color := map[string]string{
				"DBG": "36", "INF": "32", "WRN": "33", "ERR": "31", "FTL": "35",
			}[short]
			if color == "" {
				return "[" + short + "]"
			}
			return "\033[" + color + "m[" + short + "]\033[0m"
		},
	})
}

func outputWriter(output string) io.Writer {
	switch strings.ToLower(output) {
	case "stderr":
		return os.Stderr
	default:
		return os.Stdout
	}
}

// NewRunID returns a fresh identifier for tagging the records of one run.
func NewRunID() string {
	return uuid.NewString()
}

// WithRunLogging attaches hooks logging each run over Item[K, V]: start and
// completion at debug level (completion at error level when the run failed)
// and every per-item error at warn level. Records of one run share a run_id.
//
// Hooks are shared by all runs started with the returned context, and a new
// run id is drawn at each start, so runs using the context should not
// overlap.
func WithRunLogging[K, V any](ctx context.Context, logger zerolog.Logger) context.Context {
	var (
		run     zerolog.Logger
		started time.Time
		items   int
		errs    int
	)
	return core.WithHooks(ctx, core.Hooks[K, V]{
		OnStart: func(mode core.Mode) {
			run = logger.With().Str(FieldRunID, NewRunID()).Logger()
			started = time.Now()
			items, errs = 0, 0
			run.Debug().Stringer(FieldMode, mode).Msg("run started")
		},
		OnItem: func(K, V) { items++ },
		OnError: func(err error, key K, value V, d core.Decision) {
			errs++
			Zerolog(run).LogItemError(err, key, value, d)
		},
		OnComplete: func(err error) {
			ev := run.Debug()
			if err != nil {
				ev = run.Error().Err(err)
			}
			ev.Int(FieldItems, items).
				Int(FieldErrors, errs).
				Dur(FieldDuration, time.Since(started)).
				Msg("run completed")
		},
	})
}
