package main

import (
	"context"
	"fmt"

	"github.com/bilal/transition-relay/internal/communicator"
	"github.com/bilal/transition-relay/internal/relay"
	"github.com/spf13/cobra"
)

var sendStrict bool

var sendCmd = &cobra.Command{
	Use:   "send <identity> <string>",
	Short: "Relay a single string and exit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := relay.New(communicator.New(cfg))

		res := r.Handle(context.Background(), args[0], args[1])
		fmt.Fprintln(cmd.OutOrStdout(), res.Status())

		if sendStrict || cfg.Relay.Strict {
			return res.Err()
		}
		return nil
	},
}

func init() {
	sendCmd.Flags().BoolVar(&sendStrict, "strict", false, "exit non-zero unless every POST succeeded")
}
