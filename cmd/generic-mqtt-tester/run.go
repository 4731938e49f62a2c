package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/miladsoleymani/mqtttester/broker"
	"github.com/miladsoleymani/mqtttester/config"
	"github.com/miladsoleymani/mqtttester/core"
	"github.com/miladsoleymani/mqtttester/internal/observability"
	"github.com/miladsoleymani/mqtttester/internal/tester"
	"github.com/miladsoleymani/mqtttester/trc"
)

const connectTimeout = 10 * time.Second

func run(parent context.Context, s *config.Settings) error {
	logger, err := observability.NewLogger(s.LogLevel, s.LogFormat, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if s.MetricsAddr != "" {
		srv := observability.ServeMetrics(s.MetricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	transport, err := broker.Create(s.Broker, broker.Config{
		Brokers:        s.BrokerURLs,
		ClientID:       s.ClientID,
		Username:       s.Username,
		Password:       s.Password,
		ConnectTimeout: connectTimeout,
		Extra:          map[string]any{"logger": logger},
	})
	if err != nil {
		return fmt.Errorf("create %s transport: %w", s.Broker, err)
	}
	defer func() {
		if err := transport.Close(); err != nil {
			logger.WithError(err).Warn("closing transport")
		}
	}()

	var reporter core.Reporter
	if s.TRCURL != "" {
		reporter = trc.New(s.TRCURL)
	}

	t, err := tester.New(s, transport, reporter,
		tester.WithLogger(logger),
		tester.WithRegisterer(reg),
	)
	if err != nil {
		return err
	}
	return t.Run(ctx)
}
