// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package observer

import "github.com/google/fuzvisor/pkg/log"

// ConsolePrinter is the minimal Sink: it logs a one-line coverage summary
// every time UpdateNodes changes the shared state. fuzvisor-collector always
// wires it in, alongside the metrics sink when that is enabled.
type ConsolePrinter struct{}

func (ConsolePrinter) CoverageChanged(s Summary) {
	log.Logf(1, "covered %d/%d nodes, %d/%d functions, frontier %d",
		s.CoveredNodes, s.TotalNodes, s.CoveredFunctions, s.TotalFunctions, s.FrontierSize)
}
