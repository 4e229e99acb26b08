package main

import (
	"time"

	"github.com/nats-io/nats.go"
	"github.com/urfave/cli"
)

var (
	natsURL     string
	configPath  string
	interval    time.Duration
	metricsAddr string
	skipTraffic bool
	verbose     bool
)

var probeFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "nats-url, u",
		Usage:       "NATS server to keep alive",
		EnvVar:      "NATS_URL",
		Value:       nats.DefaultURL,
		Destination: &natsURL,
	},
	cli.StringFlag{
		Name:        "config, c",
		Usage:       "path to a YAML scheduler configuration",
		EnvVar:      "KEEPALIVE_CONFIG",
		Destination: &configPath,
	},
	cli.DurationFlag{
		Name:        "interval, i",
		Usage:       "keep-alive interval between probes",
		Value:       DEF_INTERVAL,
		Destination: &interval,
	},
	cli.StringFlag{
		Name:        "metrics-addr",
		Usage:       "address to serve Prometheus metrics on (disabled if empty)",
		EnvVar:      "KEEPALIVE_METRICS_ADDR",
		Destination: &metricsAddr,
	},
	cli.BoolFlag{
		Name:        "skip-on-traffic",
		Usage:       "skip a probe when messages moved since the previous one",
		Destination: &skipTraffic,
	},
	cli.BoolFlag{
		Name:        "verbose, v",
		Usage:       "enable debug logging",
		Destination: &verbose,
	},
}
