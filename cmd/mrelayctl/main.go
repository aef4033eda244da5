// mrelayctl is the offline companion tool for mrelayd.
//
// It compiles configuration files without touching the kernel, dumps the
// compiled form, evaluates single policy checks, and offers an interactive
// shell over a loaded configuration.
package main

import (
	"fmt"
	"net/netip"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcastd/mrelay/pkg/cli"
	"github.com/mcastd/mrelay/pkg/config"
	"github.com/mcastd/mrelay/pkg/netif"
)

var (
	configFile string
	resolve    bool
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mrelayctl",
		Short:         "Offline tooling for mrelay configuration files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "/etc/mrelay/mrelay.conf", "configuration file path")

	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newDumpCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newShellCmd())
	return rootCmd
}

func load(testMode bool) (*config.Configuration, error) {
	return config.Load(configFile, config.Options{
		TestMode: testMode,
		Resolver: netif.NetlinkResolver{},
	})
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Compile the configuration file and report errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := load(true); err != nil {
				return err
			}
			fmt.Printf("%s: ok\n", configFile)
			return nil
		},
	}
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the compiled configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := load(!resolve)
			if err != nil {
				return err
			}
			fmt.Println(conf.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&resolve, "resolve", false, "resolve interfaces against the kernel")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <in|out> <interface> <group> <source>",
		Short: "Evaluate one policy check against the configuration",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, ok := config.ParseDirection(args[0])
			if !ok {
				return fmt.Errorf("direction must be 'in' or 'out', got %q", args[0])
			}
			group, err := netip.ParseAddr(args[2])
			if err != nil {
				return fmt.Errorf("bad group address %q: %w", args[2], err)
			}
			source, err := netip.ParseAddr(args[3])
			if err != nil {
				return fmt.Errorf("bad source address %q: %w", args[3], err)
			}

			conf, err := load(true)
			if err != nil {
				return err
			}
			allowed, found := conf.IsSourceAllowed(dir, args[1], group, source)
			if !found {
				fmt.Printf("allowed (interface %q is not part of any instance)\n", args[1])
				return nil
			}
			if !allowed {
				fmt.Println("denied")
				os.Exit(1)
			}
			fmt.Println("allowed")
			return nil
		},
	}
}

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive policy shell over the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := load(true)
			if err != nil {
				return err
			}
			return cli.New(conf).Run()
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mrelayctl: %v\n", err)
		os.Exit(1)
	}
}
