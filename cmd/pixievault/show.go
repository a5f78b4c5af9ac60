package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pixievault/pixievault/internal/vault"
)

const detailTimeLayout = "2006-01-02 15:04:05"

func newShowCmd(opts *rootOptions) *cobra.Command {
	var (
		showPassword bool
		format       string
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an entry and record the access",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "text", "json", "yaml"); err != nil {
				return err
			}

			sess, err := openSession(cmd, opts)
			if err != nil {
				return err
			}

			e, err := sess.entries.Show(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !showPassword {
				e.Password = maskPassword(e.Password)
			}

			switch format {
			case "json":
				return outputJSON(cmd.OutOrStdout(), e)
			case "yaml":
				return outputYAML(cmd.OutOrStdout(), e)
			default:
				writeDetail(cmd.OutOrStdout(), e)
				return nil
			}
		},
	}

	cmd.Flags().BoolVar(&showPassword, "show-password", false, "Print the password instead of a mask")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json, or yaml")

	return cmd
}

// maskPassword replaces every character with a bullet.
func maskPassword(password string) string {
	return strings.Repeat("•", len([]rune(password)))
}

func detailTime(ts int64, missing string) string {
	if ts == 0 {
		return missing
	}
	return time.Unix(ts, 0).Format(detailTimeLayout)
}

func writeDetail(w io.Writer, e vault.Entry) {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", e.Name)
	fmt.Fprintf(&b, "Protocol: %s\n", e.Protocol)
	fmt.Fprintf(&b, "Website: %s\n", e.Website)
	fmt.Fprintf(&b, "Username: %s\n", e.Username)
	fmt.Fprintf(&b, "Password: %s\n", e.Password)
	fmt.Fprintf(&b, "Notes: %s\n", e.Notes)
	fmt.Fprintf(&b, "ID: %s\n", e.ID)
	fmt.Fprintf(&b, "Created: %s\n", detailTime(e.CreatedAt, "N/A"))
	fmt.Fprintf(&b, "Last Accessed: %s\n", detailTime(e.LastAccess(), "Never"))

	if len(e.Custom) > 0 {
		b.WriteString("\nCustom Fields:\n")
		keys := make([]string, 0, len(e.Custom))
		for k := range e.Custom {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  - %s: %s\n", k, e.Custom[k])
		}
	}

	_, _ = io.WriteString(w, b.String())
}
