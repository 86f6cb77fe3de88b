// Package timer records a nested wall-clock profile of the preloop.
//
// Timed sections are opened with Begin and closed with End at an explicit
// nesting level. When enabled, every section is written to a log as it
// opens and closes; sections deeper than the maximum level are skipped.
// Each section is also traced as an OpenTelemetry span, which costs nothing
// unless a tracer provider is installed.
package timer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxLevel is the deepest level written by default.
const DefaultMaxLevel = 4

// Option configures a Timer.
type Option func(*Timer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Timer) { t.now = now }
}

// WithTracer replaces the global tracer.
func WithTracer(tr trace.Tracer) Option {
	return func(t *Timer) { t.tracer = tr }
}

// WithMaxLevel sets the number of levels written.
func WithMaxLevel(n int) Option {
	return func(t *Timer) { t.maxLevel = n }
}

type section struct {
	name  string
	level int
	start time.Time
	span  trace.Span
}

// Timer is a nested section timer. The zero value is not usable; call New.
type Timer struct {
	mu       sync.Mutex
	w        io.Writer
	closer   io.Closer
	maxLevel int
	now      func() time.Time
	tracer   trace.Tracer
	open     []section
}

// New returns a disabled timer.
func New(opts ...Option) *Timer {
	t := &Timer{
		maxLevel: DefaultMaxLevel,
		now:      time.Now,
		tracer:   otel.Tracer("github.com/vk/axisem/internal/timer"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Enable starts writing sections to w. If w is an io.Closer, Close closes it.
func (t *Timer) Enable(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.w = w
	if c, ok := w.(io.Closer); ok {
		t.closer = c
	}
}

// EnableFile creates path, including parent directories, and enables the
// timer on it.
func (t *Timer) EnableFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create timer directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create timer file: %w", err)
	}
	t.Enable(f)
	return nil
}

// Enabled reports whether sections are being written.
func (t *Timer) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w != nil
}

// Begin opens a section and returns a context carrying its span.
func (t *Timer) Begin(ctx context.Context, name string, level int) context.Context {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attribute.Int("timer.level", level)))

	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.open = append(t.open, section{name: name, level: level, start: now, span: span})
	t.write(level, "BEGIN %s", name)
	return ctx
}

// End closes the innermost section, which must match name and level.
func (t *Timer) End(name string, level int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.open) == 0 {
		return fmt.Errorf("timer: end %q at level %d with no open section", name, level)
	}
	s := t.open[len(t.open)-1]
	if s.name != name || s.level != level {
		return fmt.Errorf("timer: end %q at level %d while %q at level %d is open", name, level, s.name, s.level)
	}
	t.open = t.open[:len(t.open)-1]

	elapsed := t.now().Sub(s.start)
	s.span.SetAttributes(attribute.Float64("timer.elapsed_seconds", elapsed.Seconds()))
	s.span.End()
	t.write(level, "END %s, elapsed = %.3f sec", name, elapsed.Seconds())
	return nil
}

func (t *Timer) write(level int, format string, args ...any) {
	if t.w == nil || level >= t.maxLevel {
		return
	}
	fmt.Fprintf(t.w, "%s%s\n", strings.Repeat("    ", level), fmt.Sprintf(format, args...))
}

// Close ends any sections still open and closes the output. It is safe to
// call more than once.
func (t *Timer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := len(t.open) - 1; i >= 0; i-- {
		t.open[i].span.End()
	}
	t.open = nil
	t.w = nil
	if t.closer == nil {
		return nil
	}
	c := t.closer
	t.closer = nil
	return c.Close()
}
