package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/smarthome-mcp/internal/pkg/config"
	"github.com/anicoll/smarthome-mcp/internal/pkg/dispatch"
	"github.com/anicoll/smarthome-mcp/internal/pkg/hass"
	"github.com/anicoll/smarthome-mcp/internal/pkg/metrics"
	"github.com/anicoll/smarthome-mcp/internal/pkg/mqtt"
	"github.com/anicoll/smarthome-mcp/internal/pkg/registry"
	"github.com/anicoll/smarthome-mcp/internal/pkg/server"
	"github.com/anicoll/smarthome-mcp/internal/pkg/statecache"
	"github.com/anicoll/smarthome-mcp/internal/pkg/tools"
)

type components struct {
	registry Reconciler
	bus      Bus
	hubSync  HubSync
	hub      Hub
	server   Server
}

func SmarthomeCommand(c *cli.Context) error {
	cfg := &config.Config{
		ConfigFile:       c.String("config"),
		StateFile:        c.String("state-file"),
		LogLevel:         c.String("log-level"),
		HTTPAddr:         c.String("http-addr"),
		HassConnectDelay: c.Duration("hass-delay"),
		HassInsecure:     c.Bool("hass-insecure"),
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink := &mqtt.LogSink{}
	logger, err := newLogger(cfg.LogLevel, sink)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	zap.ReplaceGlobals(logger)

	comps, err := build(cfg, sink)
	if err != nil {
		return err
	}
	return run(ctx, cfg, comps)
}

// newLogger writes to stderr, stdout belongs to the stdio transport. Entries
// are mirrored to the bus log topic through sink.
func newLogger(level string, sink *mqtt.LogSink) (*zap.Logger, error) {
	var err error
	logCfg := zap.NewProductionConfig()
	logCfg.Level, err = zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	logCfg.OutputPaths = []string{"stderr"}
	logCfg.ErrorOutputPaths = []string{"stderr"}
	logCfg.Sampling = nil
	return logCfg.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
		zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, mqtt.NewLogCore(sink, logCfg.Level))
		}),
	)
}

func build(cfg *config.Config, sink *mqtt.LogSink) (components, error) {
	store, err := config.Load(cfg.ConfigFile)
	if err != nil {
		return components{}, err
	}
	conns, err := store.Connections()
	if err != nil {
		return components{}, err
	}

	m := metrics.New()
	reg, err := registry.New(store.Devices(), registry.WithObserver(m))
	if err != nil {
		return components{}, err
	}

	bus := mqtt.New(conns.MQTT, reg, mqtt.WithObserver(m))
	sink.Attach(bus)

	hub := hass.New(conns.HomeAssistant.Host, conns.HomeAssistant.Token,
		hass.WithInsecureSkipVerify(cfg.HassInsecure),
		hass.WithObserver(m),
	)
	cache := statecache.New(reg, statecache.NewFilePersister(cfg.StateFile), statecache.WithObserver(m))
	dispatcher := dispatch.New(reg, hub, bus)
	svc := tools.New(cache, dispatcher, store, bus, reg.ControllableNames(), tools.WithObserver(m))

	mcpServer := svc.Server()
	var srv Server = server.NewStdio(mcpServer)
	if cfg.HTTPAddr != "" {
		srv = server.New(cfg.HTTPAddr, mcpServer, m.Handler())
	}

	return components{
		registry: reg,
		bus:      bus,
		hubSync:  hass.NewSync(hub, reg),
		hub:      hub,
		server:   srv,
	}, nil
}

func run(ctx context.Context, cfg *config.Config, c components) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	logger := zap.L()

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return c.registry.Run(ctx)
	})

	eg.Go(func() error {
		// a broker that is down is retried in the background
		if err := c.bus.Connect(); err != nil {
			logger.Warn("mqtt not connected yet", zap.Error(err))
		}
		<-ctx.Done()
		c.bus.Close()
		return nil
	})

	eg.Go(func() error {
		select {
		case <-time.After(cfg.HassConnectDelay):
		case <-ctx.Done():
			return nil
		}
		if err := c.hubSync.Start(ctx); err != nil {
			logger.Error("home assistant unavailable", zap.Error(err))
		}
		<-ctx.Done()
		if err := c.hub.Close(); err != nil {
			logger.Warn("closing home assistant connection", zap.Error(err))
		}
		return nil
	})

	eg.Go(func() error {
		err := c.server.Run(ctx)
		if err == nil {
			// transport closed, stop the rest
			cancel()
		}
		return err
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
