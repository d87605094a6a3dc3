package main

import (
	"fmt"
	"io"

	"filehttpd/internal/handler"

	"github.com/spf13/cobra"
)

func newHashTokenCmd(stdout io.Writer) *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-token TOKEN",
		Short: "Print a bcrypt hash of TOKEN for use with --token-hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := handler.HashToken(args[0], cost)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(stdout, hash)
			return err
		},
	}
	cmd.Flags().IntVar(&cost, "cost", handler.DefaultHashCost, "bcrypt cost")
	return cmd
}
