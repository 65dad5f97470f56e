// Robot Relay - WebSocket command relay between controllers and robots.
//
// Robots connect and register under a device id; controllers send
// "cmd:<deviceId>:<action>" frames that the relay forwards to the robot.
// The same binary runs the relay, a robot simulator and a one-shot
// controller.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nerrad567/robot-relay/internal/infrastructure/config"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// configEnvVar names the config file when --config is not given.
const configEnvVar = "ROBOTRELAY_CONFIG"

// options holds flags shared across subcommands.
type options struct {
	configPath string
	port       int
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Running the root command without a
// subcommand starts the relay.
func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "robotrelay",
		Short:         "WebSocket relay between robot controllers and robots",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default $"+configEnvVar+", then built-in defaults)")
	root.Flags().IntVarP(&opts.port, "port", "p", 0, "listen port (overrides config)")

	root.AddCommand(
		newServeCmd(opts),
		newRobotCmd(opts),
		newSendCmd(opts),
		newMigrateCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "robotrelay %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

// loadConfig resolves the config path and applies the --port override.
func loadConfig(opts *options) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = os.Getenv(configEnvVar)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if opts.port != 0 {
		cfg.Relay.Port = opts.port
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("validating config: %w", err)
		}
	}
	return cfg, nil
}
