// Command keepalive-probe keeps a NATS connection alive with the keepalive
// scheduler and exposes its metrics.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"
)

const (
	DEF_INTERVAL = 30 * time.Second
	version      = "dev"
)

func Execute(args []string) error {
	app := cli.App{
		Name:      "keepalive-probe",
		HelpName:  "keepalive-probe",
		Usage:     "keeps a NATS connection alive while the host is idle",
		Version:   version,
		UsageText: "keepalive-probe [--nats-url URL] [--interval 30s] [--metrics-addr :9090]",
		Action:    run,
		Flags:     probeFlags,
	}

	return app.Run(args)
}

func main() {
	if err := Execute(os.Args); err != nil {
		fmt.Printf("keepalive-probe: %s\n", err.Error())
		os.Exit(1)
	}
}
