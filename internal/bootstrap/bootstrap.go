package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	sessioninadapter "watchtrack/internal/modules/session/adapter/in"
	sessionoutadapter "watchtrack/internal/modules/session/adapter/out"
	sessionservice "watchtrack/internal/modules/session/service"
	sessionusecase "watchtrack/internal/modules/session/usecase"
	trackerinadapter "watchtrack/internal/modules/tracker/adapter/in"
	trackeroutadapter "watchtrack/internal/modules/tracker/adapter/out"
	trackerservice "watchtrack/internal/modules/tracker/service"
	trackerusecase "watchtrack/internal/modules/tracker/usecase"
	"watchtrack/internal/platform/clock"
	"watchtrack/internal/platform/collector"
	"watchtrack/internal/platform/config"
	"watchtrack/internal/platform/eventloop"
	"watchtrack/internal/platform/id"
	"watchtrack/internal/platform/logging"
	"watchtrack/internal/platform/scheduler"
	uiapp "watchtrack/internal/ui/app"
)

// App holds the command-line side: login state handling and the client end
// of the daemon control socket.
type App struct {
	Config     config.Config
	Log        zerolog.Logger
	SessionCLI sessioninadapter.CLIHandler
	TrackerCLI trackerinadapter.CLIHandler

	closer io.Closer
}

func New(cfg config.Config) (*App, error) {
	log, closer := logging.New(logConfig(cfg, ""))
	daemonStore := trackeroutadapter.NewFileDaemonStore(cfg.DaemonDir())

	sessionUC := sessionusecase.NewInteractor(sessionservice.NewAuthService(
		sessionoutadapter.NewCollectorAuthenticator(newCollectorClient(cfg)),
		sessionoutadapter.NewFileStateStore(cfg.StatePath()),
		id.UUID{},
	))
	remote := trackerusecase.NewRemote(trackeroutadapter.NewJSONRPCClient(0), daemonStore)

	return &App{
		Config:     cfg,
		Log:        log,
		SessionCLI: sessioninadapter.NewCLIHandler(sessionUC),
		TrackerCLI: trackerinadapter.NewCLIHandler(remote),
		closer:     closer,
	}, nil
}

func (a *App) Close() error {
	return a.closer.Close()
}

// Daemon is the long-running tracker process: event loop, tracker state,
// journal, control socket and page bridge.
type Daemon struct {
	Interactor *trackerusecase.Interactor
	Bridge     *trackerinadapter.HTTPBridge

	listen  string
	log     zerolog.Logger
	journal *trackeroutadapter.SQLiteJournal
	closer  io.Closer
}

func NewDaemon(cfg config.Config) (*Daemon, error) {
	daemonStore := trackeroutadapter.NewFileDaemonStore(cfg.DaemonDir())
	log, closer := logging.New(logConfig(cfg, daemonStore.LogPath()))
	log = log.With().Str("component", "daemon").Logger()

	journal, err := trackeroutadapter.NewSQLiteJournal(cfg.JournalPath(), id.UUID{})
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("open journal: %w", err)
	}

	clk := clock.System()
	loop := eventloop.New(0, cfg.Collector.Timeout, log)
	store := sessionoutadapter.NewFileStateStore(cfg.StatePath())
	page := trackeroutadapter.NewPageOutbox()

	svc := trackerservice.NewTrackerService(trackerservice.Deps{
		Clock:      clk,
		Scheduler:  scheduler.NewTicking(clk, loop.Post),
		Dispatcher: loop,
		Collector:  trackeroutadapter.NewCollectorReporter(newCollectorClient(cfg)),
		Journal:    journal,
		Page:       page,
		Store:      store,
		Log:        log,
	}, trackerservice.Options{
		TickInterval:        cfg.Tracker.TickInterval,
		PollInterval:        cfg.Tracker.PollInterval,
		InactivityThreshold: cfg.Tracker.InactivityThreshold,
	})

	interactor := trackerusecase.NewInteractor(trackerusecase.Deps{
		Service: svc,
		Loop:    loop,
		Page:    page,
		Journal: journal,
		Store:   store,
		Daemon:  daemonStore,
		IPC:     trackeroutadapter.NewJSONRPCServer(),
		Log:     log,
	})
	bridge := trackerinadapter.NewHTTPBridge(interactor, trackerinadapter.BridgeOptions{
		AllowedOrigins: cfg.Bridge.AllowedOrigins,
		Log:            log.With().Str("component", "bridge").Logger(),
	})

	return &Daemon{
		Interactor: interactor,
		Bridge:     bridge,
		listen:     cfg.Bridge.Listen,
		log:        log,
		journal:    journal,
		closer:     closer,
	}, nil
}

// Run serves the control socket and the page bridge until ctx ends, the
// daemon is told to shut down, or either server fails.
func (d *Daemon) Run(ctx context.Context) error {
	d.log.Info().Str("listen", d.listen).Msg("daemon starting")
	g, gctx := errgroup.WithContext(ctx)
	daemonDone := make(chan struct{})
	g.Go(func() error {
		defer close(daemonDone)
		return d.Interactor.RunDaemon(gctx)
	})
	g.Go(func() error {
		bridgeCtx, cancel := context.WithCancel(gctx)
		defer cancel()
		go func() {
			select {
			case <-daemonDone:
				cancel()
			case <-bridgeCtx.Done():
			}
		}()
		return d.Bridge.Serve(bridgeCtx, d.listen)
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	d.log.Info().Err(err).Msg("daemon stopped")
	return err
}

func (d *Daemon) Close() error {
	return errors.Join(d.journal.Close(), d.closer.Close())
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.TrackerCLI)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func newCollectorClient(cfg config.Config) *collector.Client {
	return collector.New(collector.Options{
		BaseURL:          cfg.Collector.BaseURL,
		Timeout:          cfg.Collector.Timeout,
		FailureThreshold: cfg.Collector.FailureThreshold,
		OpenTimeout:      cfg.Collector.OpenTimeout,
	})
}

func logConfig(cfg config.Config, fallbackFile string) logging.Config {
	file := cfg.Log.File
	if file == "" {
		file = fallbackFile
	}
	return logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       file,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}
}
