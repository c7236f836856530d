// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Command fuzvisor-observer-proxy listens for a Collector Service's
// Observer RPCs and forwards every one of them to a remote Observer,
// letting several geographically separate collectors share one coverage
// picture without each dialing the remote Observer directly.
package main

import (
	"flag"
	"net"
	"os"

	"github.com/google/fuzvisor/pkg/log"
	"github.com/google/fuzvisor/rpcwire"
)

func main() {
	log.RegisterFlags(flag.CommandLine)
	listenAddr := flag.String("listen_addr", "", "address to listen on (required)")
	observerURL := flag.String("observer_url", "", "remote Observer to forward to (required)")
	flag.Parse()

	if *listenAddr == "" || *observerURL == "" {
		log.Logf(0, "both --listen_addr and --observer_url are required")
		os.Exit(2)
	}

	remote, err := rpcwire.DialObserver(*observerURL)
	if err != nil {
		log.Logf(0, "dial observer %s: %v", *observerURL, err)
		os.Exit(3)
	}

	s, err := rpcwire.NewObserverServer(remote)
	if err != nil {
		log.Logf(0, "register observer proxy: %v", err)
		os.Exit(1)
	}

	lis, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		log.Logf(0, "listen on %s: %v", *listenAddr, err)
		os.Exit(2)
	}
	log.Logf(0, "forwarding %s -> %s", lis.Addr(), *observerURL)

	if err := rpcwire.Serve(s, lis); err != nil {
		log.Logf(0, "serve: %v", err)
		os.Exit(1)
	}
}
