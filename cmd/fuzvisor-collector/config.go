// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// config is the optional on-disk settings file; any field left unset falls
// back to its flag default. A missing file is not an error.
type config struct {
	ListenAddr     string `yaml:"listen_addr"`
	MetricsAddr    string `yaml:"metrics_addr"`
	ObserverURL    string `yaml:"observer_url"`
	PriorityPolicy string `yaml:"priority_policy"`
}

func loadConfig(path string) (config, error) {
	var c config
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

func (c config) applyTo(listenAddr, metricsAddr, observerURL, policyName *string) {
	if c.ListenAddr != "" {
		*listenAddr = c.ListenAddr
	}
	if c.MetricsAddr != "" {
		*metricsAddr = c.MetricsAddr
	}
	if c.ObserverURL != "" {
		*observerURL = c.ObserverURL
	}
	if c.PriorityPolicy != "" {
		*policyName = c.PriorityPolicy
	}
}
