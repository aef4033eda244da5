// mrelayd is the mrelay multicast proxy daemon.
//
// It compiles the configuration file into the proxy's access-control
// policy, resolves the declared interfaces against the kernel, and serves
// a read-only HTTP diagnostics API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mcastd/mrelay/pkg/daemon"
)

func main() {
	configFile := flag.String("config", "/etc/mrelay/mrelay.conf", "configuration file path")
	resetRPF := flag.Bool("reset-rpf", false, "disable rp_filter on resolved IPv4 interfaces")
	apiAddr := flag.String("api-addr", "127.0.0.1:8080", "HTTP API listen address (empty to disable)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	d := daemon.New(daemon.Options{
		ConfigFile:    *configFile,
		ResetRPFilter: *resetRPF,
		APIAddr:       *apiAddr,
	})

	if err := d.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "mrelayd: %v\n", err)
		os.Exit(1)
	}
}
