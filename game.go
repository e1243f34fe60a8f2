package main

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"ebiten-arcade/config"
	"ebiten-arcade/ecs"
	"ebiten-arcade/logger"
	"ebiten-arcade/resources"
	"ebiten-arcade/spawners"
	"ebiten-arcade/systems"
)

// assetProgressInterval is how often Start reports assets still loading
const assetProgressInterval = 2 * time.Second

// Game wires the asset cache, the entities and the game loop together
type Game struct {
	settings config.Settings
	logger   *log.Logger
	cache    *resources.Cache
	registry *ecs.Registry
	loop     *systems.Loop
	events   *ecs.EventManager
	watcher  *resources.Watcher

	progressEvery time.Duration

	mu       sync.Mutex
	assetErr error
}

// NewGame creates a game drawing onto surface, with frames run by scheduler
func NewGame(settings config.Settings, surface ecs.Surface, scheduler systems.Scheduler, l *log.Logger) (*Game, error) {
	l = logger.OrDefault(l, "game")

	retry := resources.RetryPolicy{
		Attempts:   settings.Assets.Retry.Attempts,
		Backoff:    time.Duration(settings.Assets.Retry.BackoffMS) * time.Millisecond,
		MaxBackoff: time.Duration(settings.Assets.Retry.MaxBackoffMS) * time.Millisecond,
		Timeout:    time.Duration(settings.Assets.Retry.TimeoutMS) * time.Millisecond,
	}
	cache := resources.NewCache(
		resources.NewFetcher(settings.Assets.Root),
		resources.WithRetry(retry),
		resources.WithMaxConcurrent(settings.Assets.MaxConcurrentLoads),
		resources.WithLogger(l.WithPrefix("assets")),
	)

	registry := ecs.NewRegistry()
	spawner := spawners.NewEntitySpawner(registry, cache, l.WithPrefix("spawner"))
	if err := spawner.SpawnLevel(settings.Level); err != nil {
		cache.Close()
		return nil, err
	}

	events := ecs.NewEventManager()
	loop := systems.NewLoop(cache, registry, surface, scheduler,
		systems.WithEvents(events),
		systems.WithLoopLogger(l.WithPrefix("loop")),
		systems.WithBackground(systems.NewBackground(settings.Level.Rows)),
		systems.WithHaltOnFault(settings.FaultPolicy == config.FaultPolicyHalt),
	)

	g := &Game{
		settings: settings,
		logger:   l,
		cache:    cache,
		registry: registry,
		loop:     loop,
		events:   events,

		progressEvery: assetProgressInterval,
	}

	if settings.Assets.HotReload && !isRemote(settings.Assets.Root) {
		w, err := resources.NewWatcher(cache, settings.Assets.Root, l.WithPrefix("watcher"))
		if err != nil {
			// Hot reload is a development aid, the game runs without it
			l.Warn("asset hot reload disabled", "err", err)
		} else {
			g.watcher = w
		}
	}

	return g, nil
}

// isRemote reports whether root is served over http(s)
func isRemote(root string) bool {
	return strings.HasPrefix(root, "http://") || strings.HasPrefix(root, "https://")
}

// Loop returns the game loop
func (g *Game) Loop() *systems.Loop {
	return g.loop
}

// Events returns the event manager game events are emitted on
func (g *Game) Events() *ecs.EventManager {
	return g.events
}

// Cache returns the asset cache
func (g *Game) Cache() *resources.Cache {
	return g.cache
}

// Start loads every asset and starts the loop once all of them are ready.
// An asset that cannot be loaded stops the game instead.
func (g *Game) Start(ctx context.Context) {
	g.cache.OnError(func(err error) {
		g.mu.Lock()
		first := g.assetErr == nil
		if first {
			g.assetErr = err
		}
		g.mu.Unlock()

		g.logger.Error("asset failed to load", "err", err)
		g.loop.Stop()
		if first {
			g.events.Emit(systems.AssetFailedEvent{Err: err})
		}
	})

	assets := g.settings.AssetList()
	g.logger.Info("loading assets", "count", len(assets), "root", g.settings.Assets.Root)
	g.cache.Load(assets...)

	g.cache.OnReady(func() {
		if err := g.loop.Init(); err != nil {
			g.logger.Debug("game loop not started", "err", err)
		}
	})
	go g.reportProgress(ctx)

	if g.watcher != nil {
		go func() {
			if err := g.watcher.Run(ctx); err != nil && ctx.Err() == nil {
				g.logger.Error("asset watcher stopped", "err", err)
			}
		}()
	}
}

// reportProgress logs the assets still loading until the cache is ready,
// fails or is closed
func (g *Game) reportProgress(ctx context.Context) {
	for {
		wctx, cancel := context.WithTimeout(ctx, g.progressEvery)
		err := g.cache.Wait(wctx)
		cancel()

		switch {
		case err == nil:
			g.logger.Info("assets ready", "count", len(g.settings.AssetList()))
			return
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			g.logger.Info("waiting for assets", "pending", g.cache.Pending())
		default:
			return
		}
	}
}

// Err returns the failure that ended the game: the first asset that could
// not be loaded, or the entity fault that halted the loop
func (g *Game) Err() error {
	g.mu.Lock()
	err := g.assetErr
	g.mu.Unlock()
	if err != nil {
		return err
	}
	return g.loop.Err()
}

// Close stops the loop and cancels outstanding asset loads
func (g *Game) Close() {
	g.loop.Stop()
	g.cache.Close()
}
