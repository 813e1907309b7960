package main

import (
	"github.com/bilal/transition-relay/internal/config"
	"github.com/bilal/transition-relay/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "transition",
	Short: "Relay tracker telemetry strings to the habitat transition service",
	Long: `transition classifies raw strings from tracking clients (payload
telemetry, ZZ station info and ZC chase car positions) and posts them to the
aggregation service as payload_telemetry, listener_info and listener_telemetry.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if v, _ := cmd.Flags().GetInt("verbosity"); cmd.Flags().Changed("verbosity") {
			cfg.Relay.Verbosity = v
		}
		if u, _ := cmd.Flags().GetString("url"); u != "" {
			cfg.Relay.URLTemplate = u
		}
		logger.Init(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or /etc/transition/config.yaml)")
	rootCmd.PersistentFlags().IntP("verbosity", "v", 0, "0 silent, 2 echoes POST bodies and responses")
	rootCmd.PersistentFlags().String("url", "", "URL template, {operation} is replaced by the operation name")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sendCmd)
}
