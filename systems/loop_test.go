package systems

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"testing"
	"time"

	"ebiten-arcade/config"
	"ebiten-arcade/ecs"
	"ebiten-arcade/logger"
	"ebiten-arcade/resources"
)

// fakeClock is a manually advanced Clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// trace is the ordered record of everything a frame did
type trace struct {
	mu    sync.Mutex
	steps []string
}

func (tr *trace) add(step string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.steps = append(tr.steps, step)
}

func (tr *trace) snapshot() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.steps...)
}

// fakeImages serves a distinct image per identifier
type fakeImages struct {
	byID   map[string]image.Image
	byImag map[image.Image]string
}

func newFakeImages(ids ...string) *fakeImages {
	f := &fakeImages{
		byID:   make(map[string]image.Image),
		byImag: make(map[image.Image]string),
	}
	for _, id := range ids {
		img := image.NewRGBA(image.Rect(0, 0, 1, 1))
		f.byID[id] = img
		f.byImag[img] = id
	}
	return f
}

func (f *fakeImages) Get(id string) (image.Image, bool) {
	img, ok := f.byID[id]
	return img, ok
}

// recordingSurface turns draw calls into trace steps
type recordingSurface struct {
	tr     *trace
	images *fakeImages
}

func (s *recordingSurface) Clear(x, y, w, h int) {
	s.tr.add(fmt.Sprintf("clear(%d,%d,%d,%d)", x, y, w, h))
}

func (s *recordingSurface) DrawImage(img image.Image, x, y int) {
	id := "?"
	if s.images != nil {
		id = s.images.byImag[img]
	}
	s.tr.add(fmt.Sprintf("draw(%s,%d,%d)", id, x, y))
}

// traceEntity records its calls and can be told to fail
type traceEntity struct {
	name        string
	tr          *trace
	updateErr   error
	renderPanic bool

	mu  sync.Mutex
	dts []float64
}

func (e *traceEntity) Name() string { return e.name }

func (e *traceEntity) Update(dt float64) error {
	e.mu.Lock()
	e.dts = append(e.dts, dt)
	e.mu.Unlock()
	e.tr.add("update:" + e.name)
	return e.updateErr
}

func (e *traceEntity) Render(dst ecs.Surface) error {
	if e.renderPanic {
		panic("sprite missing")
	}
	e.tr.add("render:" + e.name)
	return nil
}

func (e *traceEntity) deltas() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]float64(nil), e.dts...)
}

type fixture struct {
	tr       *trace
	clock    *fakeClock
	sched    *TickerScheduler
	registry *ecs.Registry
	images   *fakeImages
	surface  *recordingSurface
	enemyA   *traceEntity
	enemyB   *traceEntity
	player   *traceEntity
}

func newFixture() *fixture {
	tr := &trace{}
	images := newFakeImages(config.WaterBlock, config.StoneBlock, config.GrassBlock)
	f := &fixture{
		tr:       tr,
		clock:    newFakeClock(),
		sched:    NewTickerScheduler(60),
		registry: ecs.NewRegistry(),
		images:   images,
		surface:  &recordingSurface{tr: tr, images: images},
		enemyA:   &traceEntity{name: "enemyA", tr: tr},
		enemyB:   &traceEntity{name: "enemyB", tr: tr},
		player:   &traceEntity{name: "player", tr: tr},
	}
	f.registry.SetPlayer(f.player)
	f.registry.AddEnemy(f.enemyA)
	f.registry.AddEnemy(f.enemyB)
	return f
}

func (f *fixture) loop(opts ...LoopOption) *Loop {
	opts = append([]LoopOption{WithClock(f.clock), WithLoopLogger(logger.Discard())}, opts...)
	return NewLoop(f.images, f.registry, f.surface, f.sched, opts...)
}

func expectedBackground() []string {
	rows := config.Default().Level.Rows
	var steps []string
	for row := 0; row < config.GridRows; row++ {
		for col := 0; col < config.GridCols; col++ {
			steps = append(steps, fmt.Sprintf("draw(%s,%d,%d)", rows[row], col*101, row*83))
		}
	}
	return steps
}

func TestFrameDelta(t *testing.T) {
	f := newFixture()
	l := f.loop()

	if err := l.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if !f.sched.RunPending() {
		t.Fatal("Expected Init to schedule the first frame")
	}

	f.clock.Advance(16 * time.Millisecond)
	f.sched.RunPending()
	f.clock.Advance(250 * time.Millisecond)
	f.sched.RunPending()

	want := []float64{0, 0.016, 0.25}
	for _, e := range []*traceEntity{f.enemyA, f.enemyB, f.player} {
		got := e.deltas()
		if len(got) != len(want) {
			t.Fatalf("%s: expected %d updates, got %d", e.name, len(want), len(got))
		}
		for i := range want {
			if math.Abs(got[i]-want[i]) > 1e-9 {
				t.Errorf("%s: frame %d dt = %v, want %v", e.name, i+1, got[i], want[i])
			}
		}
	}
	if l.Frames() != 3 {
		t.Errorf("Expected 3 frames, got %d", l.Frames())
	}
}

func TestRenderOrdering(t *testing.T) {
	f := newFixture()
	l := f.loop()

	l.Init()
	f.sched.RunPending()

	want := []string{"update:enemyA", "update:enemyB", "update:player", "clear(0,0,505,606)"}
	want = append(want, expectedBackground()...)
	want = append(want, "render:enemyA", "render:enemyB", "render:player")

	got := f.tr.snapshot()
	if len(got) != len(want) {
		t.Fatalf("Expected %d steps, got %d:\n%v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGridGeometry(t *testing.T) {
	tr := &trace{}
	images := newFakeImages(config.WaterBlock, config.StoneBlock, config.GrassBlock)

	missing := DefaultBackground().Draw(&recordingSurface{tr: tr, images: images}, images)
	if missing != 0 {
		t.Errorf("Expected no missing cells, got %d", missing)
	}

	got := tr.snapshot()
	want := expectedBackground()
	if len(got) != 30 {
		t.Fatalf("Expected 30 draw calls, got %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("draw %d = %q, want %q", i, got[i], want[i])
		}
	}
	if got[0] != "draw(images/water-block.png,0,0)" || got[29] != "draw(images/grass-block.png,404,415)" {
		t.Errorf("Unexpected first/last cell: %q, %q", got[0], got[29])
	}
}

func TestBackgroundSkipsMissingRows(t *testing.T) {
	tr := &trace{}
	images := newFakeImages(config.WaterBlock, config.GrassBlock)

	missing := DefaultBackground().Draw(&recordingSurface{tr: tr, images: images}, images)
	if missing != 15 {
		t.Errorf("Expected 15 skipped stone cells, got %d", missing)
	}
	if len(tr.snapshot()) != 15 {
		t.Errorf("Expected 15 draws, got %d", len(tr.snapshot()))
	}
}

// gate blocks a fetch until released
type gate struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
}

func (g *gate) ch(id string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gates == nil {
		g.gates = make(map[string]chan struct{})
	}
	c, ok := g.gates[id]
	if !ok {
		c = make(chan struct{})
		g.gates[id] = c
	}
	return c
}

func (g *gate) Fetch(ctx context.Context, id string) (image.Image, error) {
	select {
	case <-g.ch(id):
		return image.NewRGBA(image.Rect(0, 0, 101, 171)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestLoopNeverStartsBeforeReadiness(t *testing.T) {
	f := newFixture()
	g := &gate{}
	cache := resources.NewCache(g, resources.WithLogger(logger.Discard()))
	defer cache.Close()

	ids := []string{config.WaterBlock, config.StoneBlock, config.GrassBlock}
	l := NewLoop(cache, f.registry, f.surface, f.sched, WithClock(f.clock), WithLoopLogger(logger.Discard()))

	cache.Load(ids...)
	cache.OnReady(func() {
		if err := l.Init(); err != nil {
			t.Errorf("Init failed: %v", err)
		}
	})

	close(g.ch(ids[0]))
	close(g.ch(ids[1]))
	time.Sleep(20 * time.Millisecond)

	if f.sched.RunPending() {
		t.Fatal("Expected no frame before all assets loaded")
	}
	if l.State() != StateNotStarted || len(f.tr.snapshot()) != 0 {
		t.Fatalf("Expected no update or render calls, got state %v and %v", l.State(), f.tr.snapshot())
	}

	close(g.ch(ids[2]))
	deadline := time.Now().Add(2 * time.Second)
	for !f.sched.HasPending() {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for the first frame")
		}
		time.Sleep(time.Millisecond)
	}

	f.sched.RunPending()
	if l.State() != StateRunning || l.Frames() != 1 {
		t.Errorf("Expected a running loop after one frame, got %v / %d", l.State(), l.Frames())
	}
	if got := f.enemyA.deltas(); len(got) != 1 {
		t.Errorf("Expected one update, got %d", len(got))
	}
}

func TestFaultIsolation(t *testing.T) {
	f := newFixture()
	f.enemyA.updateErr = errors.New("bad state")
	f.enemyB.renderPanic = true

	em := ecs.NewEventManager()
	var faults []*EntityFaultError
	em.Subscribe(EventEntityFault, func(e ecs.Event) {
		faults = append(faults, e.(EntityFaultEvent).Fault)
	})

	l := f.loop(WithEvents(em))
	l.Init()
	f.sched.RunPending()

	steps := f.tr.snapshot()
	last := steps[len(steps)-1]
	if last != "render:player" {
		t.Errorf("Expected the player to render despite faults, last step %q", last)
	}
	if got := f.player.deltas(); len(got) != 1 {
		t.Errorf("Expected the player to update once, got %d", len(got))
	}

	if len(faults) != 2 {
		t.Fatalf("Expected 2 fault events, got %d", len(faults))
	}
	if faults[0].Phase != PhaseUpdate || faults[0].Entity != "enemyA" || faults[0].Index != 0 {
		t.Errorf("Unexpected update fault %+v", faults[0])
	}
	var panicErr *PanicError
	if faults[1].Phase != PhaseRender || faults[1].Entity != "enemyB" || !errors.As(faults[1], &panicErr) {
		t.Errorf("Unexpected render fault %+v", faults[1])
	}
	if l.Faults().Total() != 2 {
		t.Errorf("Expected 2 logged faults, got %d", l.Faults().Total())
	}

	if l.State() != StateRunning || !f.sched.HasPending() {
		t.Error("Expected the loop to keep running")
	}
	if l.Err() != nil {
		t.Errorf("Expected no halting error, got %v", l.Err())
	}
}

func TestHaltOnFault(t *testing.T) {
	f := newFixture()
	f.enemyA.updateErr = errors.New("bad state")

	em := ecs.NewEventManager()
	var stopped []LoopStoppedEvent
	em.Subscribe(EventLoopStopped, func(e ecs.Event) {
		stopped = append(stopped, e.(LoopStoppedEvent))
	})

	l := f.loop(WithEvents(em), WithHaltOnFault(true))
	l.Init()
	f.sched.RunPending()

	want := []string{"update:enemyA"}
	got := f.tr.snapshot()
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("Expected the frame to abort after the fault, got %v", got)
	}

	if l.State() != StateStopped {
		t.Errorf("Expected stopped loop, got %v", l.State())
	}
	if f.sched.HasPending() {
		t.Error("Expected no further frame to be scheduled")
	}

	var fault *EntityFaultError
	if !errors.As(l.Err(), &fault) || fault.Entity != "enemyA" {
		t.Errorf("Expected halting fault from enemyA, got %v", l.Err())
	}
	if len(stopped) != 1 || stopped[0].Err == nil {
		t.Errorf("Expected one stop event carrying the fault, got %+v", stopped)
	}
}

func TestStop(t *testing.T) {
	f := newFixture()
	em := ecs.NewEventManager()
	stops := 0
	em.Subscribe(EventLoopStopped, func(ecs.Event) { stops++ })

	l := f.loop(WithEvents(em))
	l.Init()
	f.sched.RunPending()
	if !f.sched.HasPending() {
		t.Fatal("Expected the next frame to be scheduled")
	}

	l.Stop()
	l.Stop()

	// The already posted frame sees the stop token and does nothing
	f.sched.RunPending()
	if f.sched.HasPending() {
		t.Error("Expected no frame after Stop")
	}
	if l.Frames() != 1 {
		t.Errorf("Expected 1 frame, got %d", l.Frames())
	}
	if stops != 1 {
		t.Errorf("Expected one stop event, got %d", stops)
	}
	if l.State() != StateStopped {
		t.Errorf("Expected stopped, got %v", l.State())
	}
}

func TestInitErrors(t *testing.T) {
	f := newFixture()

	l := f.loop()
	if err := l.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := l.Init(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("Expected ErrAlreadyStarted, got %v", err)
	}

	stopped := f.loop()
	stopped.Stop()
	if err := stopped.Init(); !errors.Is(err, ErrLoopStopped) {
		t.Errorf("Expected ErrLoopStopped, got %v", err)
	}

	orphan := NewLoop(f.images, f.registry, f.surface, nil, WithLoopLogger(logger.Discard()))
	if err := orphan.Init(); !errors.Is(err, ErrNoScheduler) {
		t.Errorf("Expected ErrNoScheduler, got %v", err)
	}
}

func TestResetHookRunsOnce(t *testing.T) {
	f := newFixture()
	resets := 0
	l := f.loop(WithReset(func() { resets++ }))

	l.Init()
	for i := 0; i < 3; i++ {
		f.sched.RunPending()
	}
	if resets != 1 {
		t.Errorf("Expected reset to run once, got %d", resets)
	}
	if l.ID() == "" {
		t.Error("Expected a run id")
	}
}

func TestTickerSchedulerRun(t *testing.T) {
	f := newFixture()
	sched := NewTickerScheduler(200)
	l := NewLoop(f.images, f.registry, f.surface, sched, WithLoopLogger(logger.Discard()))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	l.Init()
	if err := sched.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	if l.Frames() == 0 {
		t.Error("Expected frames to run")
	}
}
