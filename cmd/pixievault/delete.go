package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			sess, err := openSession(cmd, opts)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			e, err := sess.entries.Get(ctx, id)
			if err != nil {
				return err
			}

			if !force {
				fmt.Fprintf(cmd.ErrOrStderr(), "Delete entry '%s' (%s)? This cannot be undone. (y/N) ", e.Name, e.ID)
				answer, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}

				answer = strings.TrimSpace(strings.ToLower(answer))
				if answer != "y" {
					fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")
					return nil
				}
			}

			if err := sess.entries.Delete(ctx, id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry '%s'\n", e.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}
