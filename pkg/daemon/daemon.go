// Package daemon implements the mrelayd daemon lifecycle.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/mcastd/mrelay/pkg/api"
	"github.com/mcastd/mrelay/pkg/config"
)

// Options configures the daemon.
type Options struct {
	ConfigFile    string
	ResetRPFilter bool   // disable rp_filter on resolved IPv4 interfaces
	APIAddr       string // HTTP API listen address, empty to disable
}

// Daemon is the main mrelayd daemon.
type Daemon struct {
	opts Options
	conf *config.Configuration
}

// New creates a new Daemon.
func New(opts Options) *Daemon {
	if opts.ConfigFile == "" {
		opts.ConfigFile = "/etc/mrelay/mrelay.conf"
	}
	return &Daemon{opts: opts}
}

// Run starts the daemon and blocks until shutdown.
func (d *Daemon) Run(ctx context.Context) error {
	slog.Info("starting mrelay daemon",
		"config", d.opts.ConfigFile,
		"pid", os.Getpid())

	conf, err := config.Load(d.opts.ConfigFile, config.Options{
		ResetRPFilter: d.opts.ResetRPFilter,
	})
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	d.conf = conf
	defer d.conf.RestoreRPFilter()

	slog.Info("configuration loaded",
		"protocol", conf.Protocol().String(),
		"tables", conf.Tables().Len(),
		"instances", conf.Instances().Len())
	for _, inst := range conf.Instances().All() {
		if set, ok := conf.ResolvedInterfaces(inst.Name); ok {
			slog.Info("instance resolved", "instance", inst.Name, "interfaces", set.String())
		}
	}

	ctx, stop := signal.NotifyContext(ctx, unix.SIGTERM, unix.SIGINT)
	defer stop()

	// SIGHUP revalidates the config file. The running configuration is
	// immutable; a changed file takes effect on restart.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, unix.SIGHUP)
	defer signal.Stop(hup)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-hup:
				d.revalidate()
			case <-ctx.Done():
				return
			}
		}
	}()

	var runErr error
	if d.opts.APIAddr != "" {
		srv := api.NewServer(api.Config{Addr: d.opts.APIAddr, Conf: conf})
		if err := srv.Run(ctx); err != nil {
			runErr = fmt.Errorf("API server: %w", err)
		}
	} else {
		<-ctx.Done()
	}

	stop()
	wg.Wait()

	slog.Info("shutdown complete")
	return runErr
}

// revalidate reloads the config file in test mode and logs whether the
// on-disk file still compiles.
func (d *Daemon) revalidate() {
	_, err := config.Load(d.opts.ConfigFile, config.Options{TestMode: true})
	if err != nil {
		slog.Error("config file no longer valid", "file", d.opts.ConfigFile, "err", err)
		return
	}
	slog.Info("config file is valid; restart to apply changes", "file", d.opts.ConfigFile)
}
