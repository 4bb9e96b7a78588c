// Package logger wraps zerolog behind a small Debug/Info/Warn/Error/With
// interface, so call sites across the dispatch engine stay decoupled from
// the concrete logging library while still emitting structured, leveled
// JSON.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the narrow logging surface every package in this repo depends
// on, instead of importing zerolog directly everywhere.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, err error, fields map[string]any)
	With(fields map[string]any) Logger
}

type zlog struct {
	l zerolog.Logger
}

// New builds the process-wide logger. component tags every line (e.g.
// "consumer", "dispatcher", "health").
func New(component string) Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	base := zerolog.New(os.Stdout).With().Timestamp().Str("component", component).Logger()
	return &zlog{l: base}
}

func (z *zlog) Debug(msg string, fields map[string]any) {
	apply(z.l.Debug(), fields).Msg(msg)
}

func (z *zlog) Info(msg string, fields map[string]any) {
	apply(z.l.Info(), fields).Msg(msg)
}

func (z *zlog) Warn(msg string, fields map[string]any) {
	apply(z.l.Warn(), fields).Msg(msg)
}

func (z *zlog) Error(msg string, err error, fields map[string]any) {
	ev := z.l.Error()
	if err != nil {
		ev = ev.Err(err)
	}
	apply(ev, fields).Msg(msg)
}

func (z *zlog) With(fields map[string]any) Logger {
	ctx := z.l.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &zlog{l: ctx.Logger()}
}

func apply(ev *zerolog.Event, fields map[string]any) *zerolog.Event {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	return ev
}
