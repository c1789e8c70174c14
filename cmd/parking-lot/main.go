package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"parking-lot/internal/config"
	"parking-lot/internal/logging"
	"parking-lot/internal/parking"
	"parking-lot/internal/server"
	"parking-lot/internal/shell"
)

func main() {
	app := &cli.App{
		Name:  "parking-lot",
		Usage: "Multi-floor parking lot with an interactive shell and an HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				EnvVars: []string{"PARKING_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "port",
				Usage: "Port for the HTTP server, overrides http.port",
			},
		},
		Action: runShell,
		Commands: []*cli.Command{
			{
				Name:   "shell",
				Usage:  "Run the interactive shell on stdin/stdout",
				Action: runShell,
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: runServer,
			},
			{
				Name:   "both",
				Usage:  "Run the HTTP API and the shell against the same lot",
				Action: runBoth,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type components struct {
	cfg       config.Config
	telemetry *parking.TelemetryProvider
	service   *parking.InstrumentedService
}

func setup(c *cli.Context) (*components, error) {
	ctx := c.Context

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if c.IsSet("port") {
		cfg.HTTP.Port = c.String("port")
	}

	telemetry := parking.NewNoopTelemetryProvider()
	if cfg.OTel.Enabled {
		telemetry, err = parking.NewTelemetryProvider(ctx, parking.TelemetryConfig{
			ServiceName: cfg.OTel.ServiceName,
			Environment: cfg.App.Env,
			Endpoint:    cfg.OTel.Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize telemetry: %w", err)
		}
	}
	logging.Init(cfg.OTel.ServiceName, cfg.App.Env)

	lot, err := parking.BuildLot(ctx, cfg.Layout)
	if err != nil {
		return nil, fmt.Errorf("build lot: %w", err)
	}
	svc, err := parking.NewService(lot,
		parking.WithNodeID(cfg.App.NodeID),
		parking.WithChargingCapacity(cfg.ChargingCapacity()),
	)
	if err != nil {
		return nil, err
	}
	instrumented, err := parking.NewInstrumentedService(svc, telemetry)
	if err != nil {
		return nil, fmt.Errorf("instrument service: %w", err)
	}

	return &components{
		cfg:       cfg,
		telemetry: telemetry,
		service:   instrumented,
	}, nil
}

func runShell(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(rt.telemetry)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sh := shell.New(rt.service, rt.telemetry.Tracer(), os.Stdin, os.Stdout)
	return sh.Run(ctx)
}

func runServer(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(rt.telemetry)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(rt.cfg.HTTP.Port, rt.cfg.OTel.ServiceName, rt.service)
	go func() {
		<-ctx.Done()
		logging.Info(context.Background(), "received shutdown signal")
		shutdownServer(srv)
	}()

	logging.Info(ctx, "starting server mode", "port", rt.cfg.HTTP.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runBoth(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(rt.telemetry)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(rt.cfg.HTTP.Port, rt.cfg.OTel.ServiceName, rt.service)
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start()
	}()

	shellDone := make(chan error, 1)
	go func() {
		sh := shell.New(rt.service, rt.telemetry.Tracer(), os.Stdin, os.Stdout)
		shellDone <- sh.Run(ctx)
	}()

	var runErr error
	select {
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case err := <-shellDone:
		logging.Info(ctx, "shell exited")
		runErr = err
	case <-ctx.Done():
		logging.Info(context.Background(), "received shutdown signal")
	}

	shutdownServer(srv)
	return runErr
}

func shutdownServer(srv *server.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error(ctx, "server shutdown error", "error", err.Error())
	}
}

func shutdownTelemetry(telemetry *parking.TelemetryProvider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logging.Info(ctx, "shutting down telemetry")
	if err := telemetry.Shutdown(ctx); err != nil {
		logging.Error(ctx, "error shutting down telemetry", "error", err.Error())
	}
}
