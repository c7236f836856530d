// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Command fuzvisor-collector runs the Collector Service: it accepts fuzzer
// client connections over rpcwire, tracks coverage in an in-process
// Observer, and optionally forwards to a remote one through the observer
// proxy protocol instead.
package main

import (
	"context"
	"flag"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/google/fuzvisor/collector"
	"github.com/google/fuzvisor/observer"
	"github.com/google/fuzvisor/pkg/log"
	"github.com/google/fuzvisor/rpcwire"
)

var (
	listenAddr  = flag.String("listen_addr", "[::1]:2501", "address fuzzer clients connect to")
	metricsAddr = flag.String("metrics_addr", "", "address to serve /metrics on; disabled if empty")
	observerURL = flag.String("observer_url", "", "remote Observer to forward coverage to; local Observer used if empty")
	policyName  = flag.String("priority_policy", "weighted", "corpus priority policy: weighted or decile")
	configPath  = flag.String("config", "", "optional YAML file overriding the flags above")
)

func main() {
	log.RegisterFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.applyTo(listenAddr, metricsAddr, observerURL, policyName)

	runID := uuid.New().String()
	log.Logf(0, "fuzvisor-collector run_id=%s starting, listen=%s", runID, *listenAddr)

	tracker := observer.NewTracker(choosePolicy(*policyName))
	tracker.AddSink(observer.ConsolePrinter{})

	var obs collector.Observer = tracker
	if *observerURL != "" {
		remote, err := rpcwire.DialObserver(*observerURL)
		if err != nil {
			log.Fatalf("dial observer %s: %v", *observerURL, err)
		}
		obs = remote
	}

	svc := collector.NewService(obs)
	_, rpcServer, err := rpcwire.NewCollectorServer(svc)
	if err != nil {
		log.Fatalf("register collector: %v", err)
	}

	lis, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		log.Fatalf("listen on %s: %v", *listenAddr, err)
	}
	log.Logf(0, "serving rpc on %s", lis.Addr())

	reg := prometheus.NewRegistry()
	if *metricsAddr != "" {
		metricsSink, err := observer.NewMetricsSink(reg, runID)
		if err != nil {
			log.Fatalf("register metrics: %v", err)
		}
		tracker.AddSink(metricsSink)
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		return rpcwire.Serve(rpcServer, lis)
	})
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: *metricsAddr, Handler: handlers.LoggingHandler(logWriter{}, mux)}
		g.Go(func() error {
			return srv.ListenAndServe()
		})
		g.Go(func() error {
			<-ctx.Done()
			lis.Close()
			return srv.Close()
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("fuzvisor-collector: %v", err)
	}
}

func choosePolicy(name string) observer.Policy {
	switch name {
	case "decile":
		return observer.DecilePolicy{}
	default:
		return observer.WeightedPolicy{}
	}
}

// logWriter routes gorilla/handlers' Apache Common Log Format access lines
// through pkg/log instead of directly to stderr.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	log.Logf(2, "%s", string(p))
	return len(p), nil
}
