package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/robot-relay/internal/infrastructure/logging"
	"github.com/nerrad567/robot-relay/internal/robot"
)

// sendTimeout bounds the one-shot controller.
const sendTimeout = 10 * time.Second

func newRobotCmd(opts *options) *cobra.Command {
	var url, deviceID string
	var reconnect time.Duration

	cmd := &cobra.Command{
		Use:   "robot",
		Short: "Run a simulated robot that registers with the relay and logs actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if url == "" {
				url = cfg.Robot.URL
			}
			if deviceID == "" {
				deviceID = cfg.Robot.DeviceID
			}
			if reconnect == 0 {
				reconnect = time.Duration(cfg.Robot.ReconnectDelay) * time.Second
			}

			log := logging.New(cfg.Logging, version).With("component", "robot")
			client, err := robot.NewClient(robot.Config{
				URL:            url,
				DeviceID:       deviceID,
				ReconnectDelay: reconnect,
			}, robot.LogActuator{Logger: log}, log)
			if err != nil {
				return err
			}

			log.Info("robot simulator starting", "url", url, "device_id", deviceID)
			return client.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "relay WebSocket URL (overrides config)")
	cmd.Flags().StringVar(&deviceID, "id", "", "device id to register (overrides config)")
	cmd.Flags().DurationVar(&reconnect, "reconnect-delay", 0, "delay between connection attempts (overrides config)")
	return cmd
}

func newSendCmd(opts *options) *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "send <deviceId> <action>",
		Short: "Send one command to a robot through the relay",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				url = cfg.Robot.URL
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), sendTimeout)
			defer cancel()

			if err := robot.SendCommand(ctx, url, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %q to %s via %s\n", args[1], args[0], url)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "relay WebSocket URL (overrides config)")
	return cmd
}
