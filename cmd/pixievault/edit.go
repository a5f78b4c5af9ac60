package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixievault/pixievault/internal/usecase"
)

func newEditCmd(opts *rootOptions) *cobra.Command {
	var (
		flags          entryFlags
		unset          []string
		promptPassword bool
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an entry",
		Long:  "Change fields of an entry. Only the flags given are applied; other fields keep their values.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			set, err := parseFields(flags.fields)
			if err != nil {
				return err
			}

			base := flags.base(cmd)
			confirm, err := collectPassword(cmd, &flags, &base, promptPassword)
			if err != nil {
				return err
			}

			if base.Empty() && len(set) == 0 && len(unset) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes made")
				return nil
			}

			sess, err := openSession(cmd, opts)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			current, err := sess.entries.Get(ctx, id)
			if err != nil {
				return err
			}

			result, err := sess.entries.Update(ctx, usecase.UpdateInput{
				ID:      id,
				Base:    base,
				Custom:  usecase.MergeCustom(current.Custom, set, unset),
				Confirm: confirm,
			})
			if err != nil {
				return err
			}

			printWarnings(cmd, result.Warnings)
			fmt.Fprintf(cmd.OutOrStdout(), "Updated entry %s\n", id)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringArrayVar(&unset, "unset-field", nil, "Remove a custom field (repeatable)")
	cmd.Flags().BoolVar(&promptPassword, "prompt-password", false, "Prompt for a new password with confirmation")

	return cmd
}
