package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"subaru-lkas-can/metrics"
	"subaru-lkas-can/utils"
)

func main() {
	var (
		iface       = flag.String("iface", "", "SocketCAN interface name (empty prints frames to stdout)")
		mapPath     = flag.String("map", "config/can/subaru_global.csv", "Path to the CAN map (.csv or .dbc)")
		scenPath    = flag.String("scenario", "lkas_tx/scenarios/lane_departure.yaml", "Scenario YAML file")
		platform    = flag.String("platform", "", "global|preglobal (default: from scenario)")
		logLevel    = flag.String("log", "info", "trace|debug|info|warn|error|critical")
		logFile     = flag.String("logfile", "lkas_tx.log", "Log file path")
		metricsAddr = flag.String("metrics", "", "Serve Prometheus metrics on this address (e.g. :9102)")
	)
	flag.Parse()

	// Stdout carries frames when no interface is given.
	log, err := utils.NewFileLogger(*logFile, utils.ParseLevel(*logLevel), *iface != "")
	if err != nil {
		_, _ = os.Stderr.WriteString("ERROR: cannot open " + *logFile + ": " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Close()

	if *metricsAddr != "" {
		srv := metrics.StartHTTP(*metricsAddr, func(err error) { log.Error("Metrics server: %v", err) })
		defer srv.Close()
		log.Info("Metrics listening on %s", *metricsAddr)
	}

	cfg := RunnerConfig{
		Interface:    *iface,
		MapPath:      *mapPath,
		ScenarioPath: *scenPath,
		Platform:     *platform,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := NewRunner(ctx, cfg, log)
	if err != nil {
		log.Critical("Startup failed: %v", err)
		os.Exit(1)
	}
	defer runner.Close()

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Critical("Run failed: %v", err)
		os.Exit(1)
	}
}
