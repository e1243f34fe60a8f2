package systems

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"ebiten-arcade/ecs"
	"ebiten-arcade/logger"
)

// LoopState is the lifecycle state of a Loop
type LoopState int

const (
	StateNotStarted LoopState = iota
	StateRunning
	StateStopped
)

func (s LoopState) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// EntitySource supplies the entities of a frame in update and render order
type EntitySource interface {
	Entities() []ecs.Entity
}

// LoopOption configures a Loop
type LoopOption func(*Loop)

// WithClock sets the frame clock
func WithClock(c Clock) LoopOption {
	return func(l *Loop) {
		l.clock = c
	}
}

// WithEvents sets the event manager loop events are emitted on
func WithEvents(em *ecs.EventManager) LoopOption {
	return func(l *Loop) {
		l.events = em
	}
}

// WithLoopLogger sets the loop logger
func WithLoopLogger(lg *log.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = lg
	}
}

// WithBackground replaces the default background grid
func WithBackground(b *Background) LoopOption {
	return func(l *Loop) {
		l.background = b
	}
}

// WithReset sets the hook Init runs before the first frame
func WithReset(fn func()) LoopOption {
	return func(l *Loop) {
		l.reset = fn
	}
}

// WithHaltOnFault makes the first entity fault abort its frame and stop
// the loop. By default a faulting entity is skipped for that frame only.
func WithHaltOnFault(halt bool) LoopOption {
	return func(l *Loop) {
		l.haltOnFault = halt
	}
}

// Loop drives the frame cycle: measure the time delta, update every
// entity, redraw the background and every entity, schedule the next frame.
type Loop struct {
	id          string
	entities    EntitySource
	surface     ecs.Surface
	scheduler   Scheduler
	images      ecs.ImageSource
	background  *Background
	renderer    *RenderSystem
	clock       Clock
	events      *ecs.EventManager
	faults      *FaultLog
	logger      *log.Logger
	reset       func()
	haltOnFault bool

	mu     sync.Mutex
	state  LoopState
	last   time.Time
	frames uint64
	err    error
	warned map[string]bool
}

// NewLoop creates a loop drawing entities and the background onto surface.
// Frames run on scheduler; nothing happens until Init is called.
func NewLoop(images ecs.ImageSource, entities EntitySource, surface ecs.Surface, scheduler Scheduler, opts ...LoopOption) *Loop {
	l := &Loop{
		id:        uuid.NewString(),
		entities:  entities,
		surface:   surface,
		scheduler: scheduler,
		images:    images,
		clock:     SystemClock{},
		faults:    NewFaultLog(100),
		reset:     func() {},
		state:     StateNotStarted,
		warned:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.events == nil {
		l.events = ecs.NewEventManager()
	}
	l.logger = logger.OrDefault(l.logger, "loop").With("run", l.id[:8])
	l.renderer = NewRenderSystem(images, l.background, l.logger)
	return l
}

// ID returns the run identifier of this loop
func (l *Loop) ID() string {
	return l.id
}

// Events returns the event manager loop events are emitted on
func (l *Loop) Events() *ecs.EventManager {
	return l.events
}

// Faults returns the log of recent entity faults
func (l *Loop) Faults() *FaultLog {
	return l.faults
}

// State returns the current lifecycle state
func (l *Loop) State() LoopState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Frames returns the number of completed frames
func (l *Loop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

// Err returns the fault that halted the loop, if any
func (l *Loop) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Init runs the reset hook, captures the initial frame timestamp and
// schedules the first frame. It must be called once, after every asset
// the frame draws is loaded.
func (l *Loop) Init() error {
	l.mu.Lock()
	switch {
	case l.scheduler == nil:
		l.mu.Unlock()
		return ErrNoScheduler
	case l.state == StateStopped:
		l.mu.Unlock()
		return ErrLoopStopped
	case l.state != StateNotStarted:
		l.mu.Unlock()
		return ErrAlreadyStarted
	}
	l.state = StateRunning
	l.mu.Unlock()

	l.reset()

	l.mu.Lock()
	l.last = l.clock.Now()
	l.mu.Unlock()

	l.logger.Info("game loop started")
	l.events.Emit(LoopStartedEvent{RunID: l.id})
	l.scheduler.RequestFrame(l.tick)
	return nil
}

// Stop ends the loop. A frame already in progress completes, but no
// further frame is scheduled.
func (l *Loop) Stop() {
	l.mu.Lock()
	wasRunning := l.state == StateRunning
	l.state = StateStopped
	frames := l.frames
	l.mu.Unlock()

	if wasRunning {
		l.logger.Info("game loop stopped", "frames", frames)
		l.events.Emit(LoopStoppedEvent{RunID: l.id, Frames: frames})
	}
}

// tick runs one frame and schedules the next
func (l *Loop) tick() {
	l.mu.Lock()
	if l.state != StateRunning {
		l.mu.Unlock()
		return
	}
	now := l.clock.Now()
	dt := now.Sub(l.last).Seconds()
	frame := l.frames + 1
	l.mu.Unlock()

	entities := l.entities.Entities()

	halted := l.update(frame, entities, dt)
	if !halted {
		l.renderer.Draw(l.surface, entities, func(i int, e ecs.Entity, err error) bool {
			halted = l.fault(PhaseRender, frame, i, e, err)
			return !halted
		})
	}

	l.mu.Lock()
	l.last = now
	l.frames = frame
	if halted && l.state == StateRunning {
		l.state = StateStopped
		l.mu.Unlock()

		err := l.Err()
		l.logger.Error("game loop halted by entity fault", "frames", frame, "err", err)
		l.events.Emit(LoopStoppedEvent{RunID: l.id, Frames: frame, Err: err})
		return
	}
	running := l.state == StateRunning
	l.mu.Unlock()

	if running {
		l.scheduler.RequestFrame(l.tick)
	}
}

// update advances every entity by dt, in order. It reports whether a
// fault halted the frame.
func (l *Loop) update(frame uint64, entities []ecs.Entity, dt float64) bool {
	for i, e := range entities {
		if err := safeCall(func() error { return e.Update(dt) }); err != nil {
			if l.fault(PhaseUpdate, frame, i, e, err) {
				return true
			}
		}
	}
	return false
}

// fault records an entity failure and reports whether it halts the loop
func (l *Loop) fault(phase Phase, frame uint64, i int, e ecs.Entity, err error) bool {
	f := &EntityFaultError{
		Phase:  phase,
		Frame:  frame,
		Index:  i,
		Entity: ecs.EntityName(e),
		Err:    err,
	}
	l.faults.Add(f)

	// Persistent faults would otherwise log every frame
	key := string(phase) + "/" + f.Entity
	l.mu.Lock()
	first := !l.warned[key]
	l.warned[key] = true
	if l.haltOnFault && l.err == nil {
		l.err = f
	}
	l.mu.Unlock()

	if first {
		l.logger.Warn("entity fault", "phase", phase, "frame", frame, "entity", f.Entity, "err", err)
	} else {
		l.logger.Debug("entity fault", "phase", phase, "frame", frame, "entity", f.Entity, "err", err)
	}
	l.events.Emit(EntityFaultEvent{Fault: f})

	return l.haltOnFault
}
