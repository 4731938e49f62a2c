package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/miladsoleymani/mqtttester/broker"
	"github.com/miladsoleymani/mqtttester/config"

	// Transports register themselves via init().
	_ "github.com/miladsoleymani/mqtttester/plugins/kafka"
	_ "github.com/miladsoleymani/mqtttester/plugins/mqtt"
	_ "github.com/miladsoleymani/mqtttester/plugins/nats"
	_ "github.com/miladsoleymani/mqtttester/plugins/rabbitmq"
	_ "github.com/miladsoleymani/mqtttester/plugins/redisstream"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "generic-mqtt-tester",
		Short: "Publish, relay and verify sequence-numbered test messages",
		Long: `Generic MQTT tester.

Scenarios:
  initiate                       publish test messages on forwards/<suffix>
  initiate_and_receive_relayed   publish, then report copies on backwards/<suffix>
  relay                          echo forwards/<suffix> onto backwards/<suffix>
  receive                        report every message on forwards/<suffix>

Every setting may also be given as an upper-case environment variable,
e.g. TEST_SCENARIO=relay or TRC_URL=http://trc:5001.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			if err := config.Load(v, configFile); err != nil {
				return err
			}
			s, err := config.FromViper(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), s)
		},
	}

	cmd.Flags().String("config", "", "config file path")
	config.SetDefaults(v)
	config.BindFlags(cmd, v)

	cmd.AddCommand(newBrokersCmd())
	return cmd
}

func newBrokersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "brokers",
		Short: "List the available transports",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range broker.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
