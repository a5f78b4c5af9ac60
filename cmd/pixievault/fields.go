package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFieldsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the field names accepted by 'list --field'",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := openSession(cmd, opts)
			if err != nil {
				return err
			}

			for _, label := range sess.entries.Fields(cmd.Context()) {
				fmt.Fprintln(cmd.OutOrStdout(), label)
			}
			return nil
		},
	}
}
