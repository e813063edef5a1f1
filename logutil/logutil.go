// logutil.go - Logger-Aufbau und Trace-Level
//
// Dieses Modul enthaelt:
// - LevelTrace: Zusaetzliches Log-Level unterhalb von Debug
// - NewLogger: Erzeugt einen slog.Logger (text oder json)
// - Trace/TraceContext: Trace-Ausgabe ueber den Default-Logger
package logutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// LevelTrace liegt unterhalb von slog.LevelDebug
const LevelTrace slog.Level = -8

// Format bestimmt den Handler-Typ
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat liest das Ausgabeformat, unbekannte Werte fallen auf text zurueck
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatJSON)) {
		return FormatJSON
	}
	return FormatText
}

// NewLogger erzeugt einen Logger mit TRACE-Unterstuetzung.
// Im Text-Format wird die Quelle (nur Dateiname) mit ausgegeben.
func NewLogger(w io.Writer, level slog.Level, format Format) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: format == FormatText,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				if lvl, ok := attr.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					attr.Value = slog.StringValue("TRACE")
				}
			case slog.SourceKey:
				if source, ok := attr.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return attr
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Trace schreibt eine Nachricht auf TRACE-Level ueber slog.Default()
func Trace(msg string, args ...any) {
	emit(context.TODO(), slog.Default(), msg, args...)
}

// TraceContext wie Trace, aber mit Context
func TraceContext(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.Default(), msg, args...)
}

// Log schreibt auf TRACE-Level in einen bestimmten Logger.
// Die Quelle zeigt auf den Aufrufer, nicht auf logutil.
func Log(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	emit(ctx, logger, msg, args...)
}

func emit(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	if logger == nil || !logger.Enabled(ctx, LevelTrace) {
		return
	}
	// 0 = emit, 1 = exportierte Funktion, 2 = Aufrufer
	pc, _, _, _ := runtime.Caller(2)
	record := slog.NewRecord(time.Now(), LevelTrace, msg, pc)
	record.Add(args...)
	_ = logger.Handler().Handle(ctx, record)
}
