package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"

	"ebiten-arcade/config"
	"ebiten-arcade/ecs"
	"ebiten-arcade/logger"
	"ebiten-arcade/screens"
	"ebiten-arcade/systems"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run plays the game with the given command line and returns the exit
// code once the game has been closed
func run(args []string) int {
	fs := flag.NewFlagSet("ebiten-arcade", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a TOML settings file")
	headless := fs.Bool("headless", false, "run without a window, drawing into an in-memory canvas")
	frames := fs.Uint64("frames", 0, "headless: stop after this many frames (0 runs until interrupted)")
	snapshot := fs.String("snapshot", "", "headless: write the last frame to this PNG file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	l := logger.Default()

	settings, err := config.Load(*configPath)
	if err != nil {
		l.Error("invalid settings", "err", err)
		return 2
	}
	if err := logger.SetLevel(settings.LogLevel); err != nil {
		l.Error("invalid settings", "err", err)
		return 2
	}

	if *headless {
		err = runHeadless(settings, *frames, *snapshot, l)
	} else {
		err = runWindowed(settings, l)
	}
	if err != nil {
		l.Error("game stopped", "err", err)
		return 1
	}
	return 0
}

// runWindowed runs the game in an ebiten window until it is closed or halts
func runWindowed(settings config.Settings, l *log.Logger) error {
	screen := screens.NewArcadeScreen(l.WithPrefix("screen"))

	game, err := NewGame(settings, screen, screen, l.WithPrefix("game"))
	if err != nil {
		return err
	}
	defer game.Close()
	screen.Attach(game.Loop())

	game.Events().Subscribe(systems.EventAssetFailed, func(e ecs.Event) {
		screen.Halt(e.(systems.AssetFailedEvent).Err)
	})
	game.Events().Subscribe(systems.EventLoopStopped, func(e ecs.Event) {
		if err := e.(systems.LoopStoppedEvent).Err; err != nil {
			screen.Halt(err)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	game.Start(ctx)

	ebiten.SetWindowSize(config.GetWindowSize(settings.WindowScale))
	ebiten.SetWindowTitle(settings.Title)
	if err := ebiten.RunGame(screen); err != nil {
		return err
	}
	return game.Err()
}

// frameBudget stops the loop once it has run a fixed number of frames
type frameBudget struct {
	systems.Scheduler
	loop  *systems.Loop
	limit uint64
}

// RequestFrame schedules fn unless the budget is spent
func (b *frameBudget) RequestFrame(fn func()) {
	if b.limit > 0 && b.loop != nil && b.loop.Frames() >= b.limit {
		b.loop.Stop()
		return
	}
	b.Scheduler.RequestFrame(fn)
}

// runHeadless drives the loop from a ticker, drawing into an in-memory canvas
func runHeadless(settings config.Settings, frames uint64, snapshot string, l *log.Logger) error {
	canvas := systems.NewCanvas()
	scheduler := systems.NewTickerScheduler(settings.FrameRate)
	budget := &frameBudget{Scheduler: scheduler, limit: frames}

	game, err := NewGame(settings, canvas, budget, l.WithPrefix("game"))
	if err != nil {
		return err
	}
	defer game.Close()
	budget.loop = game.Loop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	game.Events().Subscribe(systems.EventLoopStopped, func(ecs.Event) { cancel() })
	game.Events().Subscribe(systems.EventAssetFailed, func(ecs.Event) { cancel() })
	game.Start(ctx)

	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	l.Info("headless run finished", "frames", game.Loop().Frames(), "faults", game.Loop().Faults().Total())

	if snapshot != "" {
		if err := canvas.SavePNG(snapshot); err != nil {
			return err
		}
		l.Info("frame snapshot written", "path", snapshot)
	}
	return game.Err()
}
