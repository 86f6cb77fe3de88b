package resources

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/vk/axisem/internal/ctxlog"
	"github.com/vk/axisem/internal/fourier"
	"github.com/vk/axisem/internal/plancache"
)

var (
	// ErrAlreadyAcquired is returned by a second Acquire.
	ErrAlreadyAcquired = errors.New("resources: already acquired")
	// ErrReleased is returned when the Manager is used after Release.
	ErrReleased = errors.New("resources: released")
	// ErrNotAcquired is returned when resources are requested before Acquire.
	ErrNotAcquired = errors.New("resources: not acquired")
	// ErrAllocationForbidden is returned when something would be built or
	// destroyed during the time loop.
	ErrAllocationForbidden = errors.New("resources: allocation forbidden in time loop")
)

// State is the Manager lifecycle state.
type State int

const (
	Uninitialized State = iota
	Acquired
	Released
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Acquired:
		return "acquired"
	case Released:
		return "released"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Phase tags which part of the run the process is in.
type Phase int

const (
	Preloop Phase = iota
	TimeLoop
	Postloop
)

func (p Phase) String() string {
	switch p {
	case Preloop:
		return "preloop"
	case TimeLoop:
		return "timeloop"
	case Postloop:
		return "postloop"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Op is the kind of an Event.
type Op int

const (
	Build Op = iota
	Destroy
)

func (o Op) String() string {
	if o == Build {
		return "build"
	}
	return "destroy"
}

// Names of the element workspace banks in events.
const (
	SolidBank = "solid"
	FluidBank = "fluid"
)

// Event reports that a bank was built or destroyed.
type Event struct {
	Op   Op
	Bank string
}

// Observer receives events synchronously.
type Observer func(Event)

// Option configures a Manager.
type Option func(*Manager)

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observers = append(m.observers, o) }
}

// WithStore sets the plan cache. Without one, plans are always computed.
func WithStore(s plancache.Store) Option {
	return func(m *Manager) { m.store = s }
}

type bank struct {
	variant   fourier.Variant
	plans     []*fourier.Plan // indexed by length-1
	workspace *fourier.Workspace
}

// Manager owns the static numerical resources of one rank.
type Manager struct {
	store     plancache.Store
	observers []Observer

	state State
	phase Phase
	maxNr int

	banks []*bank
	solid *ElementWorkspace
	fluid *ElementWorkspace
}

// New returns an uninitialized Manager.
func New(opts ...Option) *Manager {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the lifecycle state.
func (m *Manager) State() State { return m.state }

// Phase returns the phase tag.
func (m *Manager) Phase() Phase { return m.phase }

// MaxNr returns the size resources were acquired for.
func (m *Manager) MaxNr() int { return m.maxNr }

func (m *Manager) emit(op Op, name string) {
	for _, o := range m.observers {
		o(Event{Op: op, Bank: name})
	}
}

func (m *Manager) audit(what string) error {
	if auditAllocations && m.phase == TimeLoop {
		return fmt.Errorf("%w: %s", ErrAllocationForbidden, what)
	}
	return nil
}

// Acquire restores the plan cache, builds every bank for transform lengths
// 1..maxNr together with the element workspaces, and writes the cache back.
func (m *Manager) Acquire(ctx context.Context, maxNr int) error {
	switch m.state {
	case Acquired:
		return ErrAlreadyAcquired
	case Released:
		return ErrReleased
	}
	if maxNr < 1 {
		return fmt.Errorf("resources: max nr must be positive, got %d", maxNr)
	}
	if err := m.audit("acquire"); err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)

	cached := m.restore(ctx)

	var total uint64
	for _, v := range fourier.Variants {
		b, err := newBank(v, maxNr, cached)
		if err != nil {
			m.unwind()
			return fmt.Errorf("build bank %s: %w", v, err)
		}
		m.banks = append(m.banks, b)
		m.emit(Build, string(v))
		total += b.workspace.Bytes()
	}
	m.solid = NewElementWorkspace(SolidBank, maxNr/2, SolidComponents)
	m.emit(Build, SolidBank)
	m.fluid = NewElementWorkspace(FluidBank, maxNr/2, FluidComponents)
	m.emit(Build, FluidBank)
	total += m.solid.Bytes() + m.fluid.Bytes()

	m.maxNr = maxNr
	m.state = Acquired
	logger.Debug("Static resources acquired.",
		"max_nr", maxNr,
		"cached_plans", len(cached),
		"workspace", humanize.IBytes(total))

	if m.store != nil {
		if err := m.store.Save(ctx, m.export()); err != nil {
			return fmt.Errorf("save plan cache: %w", err)
		}
	}
	return nil
}

// restore loads cached plans. Any failure is logged and treated as an
// empty cache.
func (m *Manager) restore(ctx context.Context) map[plancache.Key]plancache.Entry {
	out := make(map[plancache.Key]plancache.Entry)
	if m.store == nil {
		return out
	}
	entries, err := m.store.Load(ctx)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Plan cache unreadable, rebuilding plans.", "error", err)
		return out
	}
	for _, e := range entries {
		out[e.Key()] = e
	}
	return out
}

func newBank(v fourier.Variant, maxNr int, cached map[plancache.Key]plancache.Entry) (*bank, error) {
	howmany := v.Howmany()
	b := &bank{variant: v, plans: make([]*fourier.Plan, maxNr)}
	for n := 1; n <= maxNr; n++ {
		var (
			p   *fourier.Plan
			err error
		)
		if e, ok := cached[plancache.Key{Variant: string(v), N: n}]; ok && e.Howmany == howmany {
			p, err = fourier.RestorePlan(n, howmany, e.Cos, e.Sin)
		}
		if p == nil || err != nil {
			p, err = fourier.NewPlan(n, howmany)
			if err != nil {
				return nil, err
			}
		}
		b.plans[n-1] = p
	}
	b.workspace = fourier.NewWorkspace(maxNr, howmany)
	return b, nil
}

func (m *Manager) export() []plancache.Entry {
	var entries []plancache.Entry
	for _, b := range m.banks {
		for _, p := range b.plans {
			cos, sin := p.Twiddles()
			entries = append(entries, plancache.Entry{
				Variant: string(b.variant),
				N:       p.N,
				Howmany: p.Howmany,
				Cos:     cos,
				Sin:     sin,
			})
		}
	}
	return entries
}

// unwind destroys whatever a failed Acquire had built, newest first.
func (m *Manager) unwind() {
	if m.fluid != nil {
		m.fluid = nil
		m.emit(Destroy, FluidBank)
	}
	if m.solid != nil {
		m.solid = nil
		m.emit(Destroy, SolidBank)
	}
	for i := len(m.banks) - 1; i >= 0; i-- {
		m.emit(Destroy, string(m.banks[i].variant))
	}
	m.banks = nil
}

// Release destroys everything Acquire built, in reverse order. It does
// nothing on a Manager that was never acquired or is already released.
func (m *Manager) Release(ctx context.Context) error {
	if m.state != Acquired {
		return nil
	}
	if err := m.audit("release"); err != nil {
		return err
	}
	m.unwind()
	m.state = Released
	ctxlog.FromContext(ctx).Debug("Static resources released.", "max_nr", m.maxNr)
	return nil
}

func (m *Manager) checkAcquired() error {
	switch m.state {
	case Uninitialized:
		return ErrNotAcquired
	case Released:
		return ErrReleased
	}
	return nil
}

func (m *Manager) lookup(v fourier.Variant) (*bank, error) {
	if err := m.checkAcquired(); err != nil {
		return nil, err
	}
	for _, b := range m.banks {
		if b.variant == v {
			return b, nil
		}
	}
	return nil, fmt.Errorf("resources: unknown bank %q", v)
}

// Plan returns the plan of bank v for sequences of length n.
func (m *Manager) Plan(v fourier.Variant, n int) (*fourier.Plan, error) {
	b, err := m.lookup(v)
	if err != nil {
		return nil, err
	}
	if n < 1 || n > len(b.plans) {
		return nil, fmt.Errorf("resources: no %s plan of length %d (max %d)", v, n, len(b.plans))
	}
	return b.plans[n-1], nil
}

// Workspace returns the transform workspace of bank v.
func (m *Manager) Workspace(v fourier.Variant) (*fourier.Workspace, error) {
	b, err := m.lookup(v)
	if err != nil {
		return nil, err
	}
	return b.workspace, nil
}

// Ensure makes the workspace of bank v hold sequences of length n,
// growing it if needed.
func (m *Manager) Ensure(v fourier.Variant, n int) error {
	w, err := m.Workspace(v)
	if err != nil {
		return err
	}
	if w.Fits(n) {
		return nil
	}
	if err := m.audit(fmt.Sprintf("grow %s workspace to %d", v, n)); err != nil {
		return err
	}
	w.Resize(n)
	return nil
}

// Solid returns the solid element workspace.
func (m *Manager) Solid() (*ElementWorkspace, error) {
	if err := m.checkAcquired(); err != nil {
		return nil, err
	}
	return m.solid, nil
}

// Fluid returns the fluid element workspace.
func (m *Manager) Fluid() (*ElementWorkspace, error) {
	if err := m.checkAcquired(); err != nil {
		return nil, err
	}
	return m.fluid, nil
}

// EnterTimeLoop switches the phase tag to TimeLoop.
func (m *Manager) EnterTimeLoop() {
	m.phase = TimeLoop
}

// LeaveTimeLoop switches the phase tag to Postloop.
func (m *Manager) LeaveTimeLoop() {
	m.phase = Postloop
}
