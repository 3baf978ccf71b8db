// Package bootstrap wires the server together: configuration, logging,
// storage, the synthesis pipeline, the queue controller and the HTTP API,
// with ordered init steps and graceful shutdown.
package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"donotts-server-go/internal/domain/audio"
	"donotts-server-go/internal/domain/eventbus"
	"donotts-server-go/internal/domain/notify"
	"donotts-server-go/internal/domain/overlay"
	"donotts-server-go/internal/domain/playback"
	"donotts-server-go/internal/domain/queue"
	"donotts-server-go/internal/domain/tts"
	"donotts-server-go/internal/platform/config"
	"donotts-server-go/internal/platform/errors"
	"donotts-server-go/internal/platform/logging"
	"donotts-server-go/internal/platform/storage"
	httptransport "donotts-server-go/internal/transport/http"
	"donotts-server-go/internal/transport/http/webapi"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      errors.Kind
	Execute   stepFn
}

type appState struct {
	cfg        *config.Config
	log        *logging.Logger
	queueRepo  *storage.QueueRepository
	cache      tts.Cache
	pipeline   *tts.Pipeline
	player     playback.Executor
	bus        *eventbus.Bus
	controller *queue.Controller
	overlay    *overlay.Client
}

// Run drives the whole server lifecycle: init steps, HTTP serving, graceful
// shutdown on SIGINT/SIGTERM.
func Run(ctx context.Context) error {
	state := &appState{}

	if err := executeInitSteps(ctx, InitGraph(), state); err != nil {
		return err
	}
	log := state.log

	defer func() {
		if state.overlay != nil {
			state.overlay.Close()
		}
		if state.player != nil {
			if err := state.player.Close(); err != nil {
				log.WarnTag("BOOT", "audio device did not close cleanly: %v", err)
			}
		}
		state.bus.WaitAsync()
		log.Close()
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)
	if err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	log.InfoTag("BOOT", "donotts-server listening on %s:%d (providers: %v)",
		state.cfg.Server.IP, state.cfg.Server.Port, enabledProviders(state.cfg))

	<-signalCtx.Done()
	log.InfoTag("BOOT", "shutdown signal received")
	state.controller.CancelAdvance()
	cancel()

	if err := group.Wait(); err != nil && !stderrors.Is(err, context.Canceled) {
		return err
	}
	log.InfoTag("BOOT", "shutdown complete")
	return nil
}

// InitGraph declares the ordered init steps. Dependencies are validated at
// execution time so a reordering mistake fails loudly.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    errors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init",
			Title:     "Initialise logging",
			DependsOn: []string{"config:load"},
			Kind:      errors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "storage:open",
			Title:     "Open database and caches",
			DependsOn: []string{"config:load", "logging:init"},
			Kind:      errors.KindStorage,
			Execute:   openStorageStep,
		},
		{
			ID:        "tts:init",
			Title:     "Build synthesis pipeline",
			DependsOn: []string{"storage:open"},
			Kind:      errors.KindProvider,
			Execute:   initPipelineStep,
		},
		{
			ID:        "playback:init",
			Title:     "Open playback device",
			DependsOn: []string{"config:load", "logging:init"},
			Kind:      errors.KindPlayback,
			Execute:   initPlaybackStep,
		},
		{
			ID:        "queue:init",
			Title:     "Start queue controller",
			DependsOn: []string{"storage:open", "tts:init", "playback:init"},
			Kind:      errors.KindDomain,
			Execute:   initQueueStep,
		},
		{
			ID:        "listeners:attach",
			Title:     "Attach overlay and notifier",
			DependsOn: []string{"queue:init"},
			Kind:      errors.KindTransport,
			Execute:   attachListenersStep,
		},
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return errors.New(errors.KindBootstrap, step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep))
			}
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *errors.Error
			if stderrors.As(err, &typed) {
				return err
			}
			kind := step.Kind
			if kind == "" {
				kind = errors.KindBootstrap
			}
			return errors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func loadConfigStep(_ context.Context, state *appState) error {
	loaded, err := config.NewLoader().Load()
	if err != nil {
		return err
	}
	state.cfg = loaded.Config
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	log, err := logging.New(logging.Config{
		Level:    state.cfg.Log.Level,
		Dir:      state.cfg.Log.Dir,
		Filename: state.cfg.Log.File,
	})
	if err != nil {
		return err
	}
	state.log = log
	return nil
}

func openStorageStep(_ context.Context, state *appState) error {
	db, err := storage.Open(state.cfg.Database)
	if err != nil {
		return err
	}
	state.queueRepo = storage.NewQueueRepository(db)

	cache, err := storage.NewCache(state.cfg.Cache, db)
	if err != nil {
		return err
	}
	state.cache = cache
	state.log.InfoTag("BOOT", "database open at %s, cache backend %s",
		state.cfg.Database.Path, cacheBackendName(state.cfg.Cache))
	return nil
}

func initPipelineStep(_ context.Context, state *appState) error {
	registry, err := tts.BuildRegistry(state.cfg.TTS)
	if err != nil {
		return err
	}
	profile := audio.ProfileFromConfig(state.cfg.Audio)
	resolver := tts.NewResolver(state.cfg.TTS)
	state.pipeline = tts.NewPipeline(state.cfg.TTS, registry, resolver, state.cache, profile, state.log)
	state.log.InfoTag("BOOT", "synthesis pipeline ready, audio profile %s", profile.ID())
	return nil
}

func initPlaybackStep(_ context.Context, state *appState) error {
	if !state.cfg.Playback.Enabled {
		state.player = playback.NewNull(state.log)
		return nil
	}
	profile := audio.ProfileFromConfig(state.cfg.Audio)
	device, err := playback.NewDevice(state.cfg.Playback, profile, state.log)
	if err != nil {
		return err
	}
	state.player = device
	return nil
}

func initQueueStep(ctx context.Context, state *appState) error {
	state.bus = eventbus.New()
	state.controller = queue.NewController(
		state.queueRepo, state.pipeline, state.player, state.bus, state.log,
		state.cfg.Queue.MaxMessageLength)
	return state.controller.RecoverStuck(ctx)
}

func attachListenersStep(_ context.Context, state *appState) error {
	if state.cfg.Overlay.Enabled {
		state.overlay = overlay.New(state.cfg.Overlay, state.log)
		if err := state.overlay.Attach(state.bus); err != nil {
			return err
		}
	}
	if state.cfg.Discord.Enabled {
		if err := notify.NewDiscord(state.cfg.Discord, state.log).Attach(state.bus); err != nil {
			return err
		}
	}
	return nil
}

func startHTTPServer(state *appState, group *errgroup.Group, ctx context.Context) error {
	router, err := httptransport.Build(httptransport.Options{
		Config: state.cfg,
		Logger: state.log,
	})
	if err != nil {
		return err
	}
	webapi.NewService(state.controller, state.log).Register(router.API)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", state.cfg.Server.IP, state.cfg.Server.Port),
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			state.log.WarnTag("HTTP", "server did not shut down cleanly: %v", err)
		}
		return nil
	})
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(errors.KindTransport, "bootstrap.http", "server exited", err)
		}
		return nil
	})
	return nil
}

func enabledProviders(cfg *config.Config) []string {
	var ids []string
	for _, id := range cfg.TTS.FallbackOrder {
		if pc, ok := cfg.TTS.Providers[id]; ok && pc.Enabled {
			ids = append(ids, id)
		}
	}
	return ids
}

func cacheBackendName(cfg config.CacheConfig) string {
	if cfg.Backend == "" {
		return "sqlite"
	}
	return cfg.Backend
}
