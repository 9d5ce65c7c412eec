package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/eapache/channels"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"heroscope/internal/config"
	"heroscope/internal/domain"
	"heroscope/internal/eventbus"
	"heroscope/internal/logging"
	"heroscope/internal/marvel"
	"heroscope/internal/pipeline"
	"heroscope/internal/state"
	"heroscope/internal/ui"
	"heroscope/internal/viewmodels"
)

// Flags holds the parsed command line
type Flags struct {
	ConfigPath string
	LogPath    string
	Demo       bool
	Debug      bool
	InitConfig bool
}

// ParseFlags parses args (without the program name)
func ParseFlags(args []string, output io.Writer) (Flags, error) {
	var f Flags
	fs := pflag.NewFlagSet("heroscope", pflag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVarP(&f.ConfigPath, "config", "c", "", "Path to the config file (default: user config dir)")
	fs.StringVar(&f.LogPath, "log", logging.DefaultFile, "Path to the log file")
	fs.BoolVar(&f.Demo, "demo", false, "Browse the built-in demo catalog instead of the remote API")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&f.InitConfig, "init-config", false, "Write the effective config to the config file and exit")
	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: heroscope [flags]\n\nBrowse the character catalog page by page.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return f, err
	}
	return f, nil
}

// Run is the program entry point; it returns the process exit code
func Run(args []string) int {
	flags, err := ParseFlags(args, os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}

	logger, err := logging.New(flags.LogPath, flags.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not open log file: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if err := run(flags, logger); err != nil {
		logger.Error("heroscope exited with error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func run(flags Flags, logger *zap.Logger) error {
	// Create context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bus := eventbus.New(logger)
	defer bus.Close()

	configSvc := config.NewConfigService()
	if flags.ConfigPath != "" {
		configSvc = config.NewConfigServiceForPath(flags.ConfigPath)
	}
	configSvc = config.WithBus(configSvc, bus)

	cfg, err := configSvc.Load()
	if err != nil {
		return fmt.Errorf("load config %s: %w", configSvc.Path(), err)
	}
	logger.Info("config loaded", zap.String("path", configSvc.Path()))

	if flags.InitConfig {
		if err := configSvc.Save(cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Printf("Config written to %s\n", configSvc.Path())
		return nil
	}

	store, err := state.NewStore(bus, cfg.Query.PageSizes, cfg.Query.DefaultPageSize, logger)
	if err != nil {
		return fmt.Errorf("create query store: %w", err)
	}

	fetcher, source, err := NewFetcher(cfg, flags.Demo, logger)
	if err != nil {
		return err
	}
	logger.Info("using fetcher", zap.String("source", source))

	pipe := pipeline.New(bus, store, fetcher, cfg.Query.Debounce(), logger)
	combiner := viewmodels.NewCombiner(bus, store, pipe, logger)

	model := ui.NewModel(store, pipe, ui.Options{
		ShowDescriptions: cfg.UISettings.ShowDescriptions,
		Pager:            ui.NewOvPager(),
		Logger:           logger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	model.SetProgram(p)

	// Forward to the UI through an unbounded queue so the event loop never
	// blocks on the terminal
	forward := channels.NewInfiniteChannel()
	unsubscribeVM := combiner.Subscribe(func(vm domain.ViewModel) {
		forward.In() <- ui.ViewModelMsg{ViewModel: vm}
	})
	unsubscribeFailed := bus.Subscribe(domain.EventFetchFailed, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.FetchFailedEvent); ok {
			forward.In() <- ui.FetchFailedMsg{Params: event.Params, Err: event.Err}
		}
	})
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		for msg := range forward.Out() {
			p.Send(msg)
		}
	}()

	pipe.Start()

	logger.Info("starting UI")
	_, runErr := p.Run()
	logger.Info("UI exited")

	pipe.Stop()
	unsubscribeVM()
	unsubscribeFailed()
	combiner.Close()
	// Drain the loop before closing the forwarding queue
	done := make(chan struct{})
	if bus.Post(func() { close(done) }) {
		<-done
	}
	forward.Close()
	<-forwarded

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("run UI: %w", runErr)
	}
	return nil
}

// NewFetcher picks the remote API when credentials exist, otherwise the
// embedded demo catalog. It returns a description of the chosen source.
func NewFetcher(cfg *config.Config, demo bool, logger *zap.Logger) (pipeline.Fetcher, string, error) {
	if demo || !cfg.API.HasCredentials() {
		latency := time.Duration(cfg.UISettings.DemoLatencyMs) * time.Millisecond
		catalog, err := marvel.NewDemoCatalog(latency)
		if err != nil {
			return nil, "", fmt.Errorf("load demo catalog: %w", err)
		}
		return catalog, "demo catalog", nil
	}

	client := marvel.NewClient(marvel.Options{
		BaseURL:    cfg.API.BaseURL,
		PublicKey:  cfg.API.PublicKey,
		PrivateKey: cfg.API.PrivateKey,
		Timeout:    cfg.API.Timeout(),
	}, logger)
	return client, cfg.API.BaseURL, nil
}
