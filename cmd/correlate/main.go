package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/trevden810/dispatchtracker/internal/config"
	"github.com/trevden810/dispatchtracker/internal/logger"
	"github.com/trevden810/dispatchtracker/internal/service"
)

func main() {
	// Logs go to stderr so stdout carries only the JSON result.
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		Output:      os.Stderr,
		ServiceName: "dispatchtracker-correlate",
	})
	logger.SetDefaultLogger(appLogger)

	configPath := flag.String("config", "", "Path to config file")
	withHygiene := flag.Bool("hygiene", false, "Include the schedule hygiene report")
	outPath := flag.String("out", "", "Write the JSON result to this file instead of stdout")
	tracking := flag.Bool("tracking", false, "Print the dashboard view instead of the raw engine output")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		appLogger.WithError(err).Fatal("Invalid config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	app, err := service.NewApp(ctx, cfg)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize dispatch service")
	}
	defer app.Close()

	report, err := app.Dispatch.Correlate(ctx, service.CorrelateOptions{IncludeHygiene: *withHygiene})
	if err != nil {
		appLogger.WithError(err).Fatal("Correlation run failed")
	}

	var out any = report
	if *tracking {
		out = service.NewTrackingView(report)
	}

	var w io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to create output file")
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		appLogger.WithError(err).Fatal("Failed to write result")
	}

	appLogger.WithFields(logger.Fields{
		logger.FieldRunID:  report.RunID,
		logger.FieldStatus: string(report.Status),
		"matched":          report.Result.Summary.MatchedVehicles,
		"vehicles":         report.Result.Summary.TotalVehicles,
	}).Info("Correlation run finished")
}
