package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/buragame/burad/internal/randutil"
	"github.com/buragame/burad/internal/server"
	"github.com/buragame/burad/internal/store"
)

// ServeCmd runs the server.
type ServeCmd struct {
	Addr   string `kong:"help='Listen address, overrides the config file'"`
	Config string `kong:"default='burad.hcl',help='Path to the HCL config file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
	Seed   *int64 `kong:"help='Deterministic RNG seed (optional)'"`
}

func (c *ServeCmd) Run() error {
	logger := setupLogger(c.Debug)

	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Server.Address, cfg.Server.Port = splitAddr(c.Addr, cfg.Server.Port)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !c.Debug {
		if level, parseErr := log.ParseLevel(cfg.Server.LogLevel); parseErr == nil {
			logger.SetLevel(level)
		}
	}

	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info("using deterministic seed", "seed", seed)
	} else {
		seed = time.Now().UnixNano()
	}
	rng := randutil.New(seed)

	stats, err := store.Open(cfg.Server.DBPath)
	if err != nil {
		return err
	}

	srv := server.NewServer(cfg, stats, logger, quartz.NewReal(), rng)

	logger.Info("starting bura server",
		"addr", cfg.ListenAddress(),
		"db", cfg.Server.DBPath,
		"grace_sec", cfg.Server.DisconnectGraceSec)

	ctx := setupSignalHandler(logger)
	return srv.Run(ctx)
}

func setupLogger(debug bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// setupSignalHandler creates a context that is cancelled on interrupt signals
func setupSignalHandler(logger *log.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down gracefully", "signal", sig.String())
		cancel()
	}()

	return ctx
}

// splitAddr splits "host:port" with either part optional.
func splitAddr(addr string, defaultPort int) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, defaultPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, defaultPort
	}
	return host, port
}
