// Package logging provides a compact, colorized slog.Handler for the net
// actor's event stream — bootstrap attempts, query/response traffic,
// routing table churn — meant for a terminal, not a log aggregator.
package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var bufPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// Options configures a Handler. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	Level      slog.Level
	UseColor   bool
	ShowSource bool
	TimeFormat string
}

func DefaultOptions() Options {
	return Options{
		Level:      slog.LevelInfo,
		UseColor:   true,
		ShowSource: false,
		TimeFormat: time.TimeOnly,
	}
}

// Handler renders each record on one line: time, level, optional source,
// message, then "key=value" pairs for every attribute, colorized by field
// kind rather than JSON-encoded.
type Handler struct {
	opts   Options
	writer io.Writer
	mu     *sync.Mutex
	groups []string
	attrs  []slog.Attr

	colorTime   func(...any) string
	colorLevel  map[slog.Level]func(...any) string
	colorMsg    func(...any) string
	colorSource func(...any) string
	colorAttr   func(...any) string
}

func NewHandler(w io.Writer, opts Options) *Handler {
	if opts.TimeFormat == "" {
		opts.TimeFormat = time.TimeOnly
	}

	h := &Handler{
		opts:   opts,
		writer: w,
		mu:     &sync.Mutex{},
	}
	h.initColors()
	return h
}

func (h *Handler) initColors() {
	if !h.opts.UseColor {
		plain := func(a ...any) string { return fmt.Sprint(a...) }
		h.colorTime, h.colorMsg, h.colorSource, h.colorAttr = plain, plain, plain, plain
		h.colorLevel = map[slog.Level]func(...any) string{
			slog.LevelDebug: plain, slog.LevelInfo: plain, slog.LevelWarn: plain, slog.LevelError: plain,
		}
		return
	}

	h.colorTime = color.New(color.FgHiBlack).SprintFunc()
	h.colorMsg = color.New(color.FgCyan).SprintFunc()
	h.colorSource = color.New(color.FgHiBlack).SprintFunc()
	h.colorAttr = color.New(color.FgWhite).SprintFunc()
	h.colorLevel = map[slog.Level]func(...any) string{
		slog.LevelDebug: color.New(color.FgMagenta).SprintFunc(),
		slog.LevelInfo:  color.New(color.FgBlue).SprintFunc(),
		slog.LevelWarn:  color.New(color.FgYellow).SprintFunc(),
		slog.LevelError: color.New(color.FgRed, color.Bold).SprintFunc(),
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	buf := bufPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufPool.Put(buf)
	}()

	h.mu.Lock()
	defer h.mu.Unlock()

	buf.WriteString(h.colorTime(r.Time.Format(h.opts.TimeFormat)))
	buf.WriteByte(' ')
	buf.WriteString(h.levelTag(r.Level))
	buf.WriteByte(' ')

	if h.opts.ShowSource {
		if src := h.source(r.PC); src != "" {
			buf.WriteString(h.colorSource(src))
			buf.WriteByte(' ')
		}
	}

	buf.WriteString(h.colorMsg(r.Message))

	prefix := strings.Join(h.groups, ".")
	writeAttr := func(a slog.Attr) bool {
		if a.Equal(slog.Attr{}) {
			return true
		}
		key := a.Key
		if prefix != "" {
			key = prefix + "." + key
		}
		buf.WriteByte(' ')
		buf.WriteString(h.colorAttr(fmt.Sprintf("%s=%v", key, a.Value.Resolve())))
		return true
	}
	for _, a := range h.attrs {
		writeAttr(a)
	}
	r.Attrs(writeAttr)

	buf.WriteByte('\n')
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	nh := &Handler{
		opts:   h.opts,
		writer: h.writer,
		mu:     &sync.Mutex{},
		groups: append([]string(nil), h.groups...),
		attrs:  append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
	nh.initColors()
	return nh
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := &Handler{
		opts:   h.opts,
		writer: h.writer,
		mu:     &sync.Mutex{},
		groups: append(append([]string(nil), h.groups...), name),
		attrs:  append([]slog.Attr(nil), h.attrs...),
	}
	nh.initColors()
	return nh
}

func (h *Handler) levelTag(level slog.Level) string {
	tag := fmt.Sprintf("%-5s", strings.ToUpper(level.String()))
	if f, ok := h.colorLevel[level]; ok {
		return f(tag)
	}
	return tag
}

func (h *Handler) source(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	if frame.Function == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
}

// New builds a ready-to-use *slog.Logger writing to w.
func New(w io.Writer, opts Options) *slog.Logger {
	return slog.New(NewHandler(w, opts))
}
