package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/pixievault/pixievault/internal/query"
	"github.com/pixievault/pixievault/internal/usecase"
	"github.com/pixievault/pixievault/internal/vault"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		search string
		field  string
		sortBy string
		format string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format, "table", "json", "yaml"); err != nil {
				return err
			}

			sess, err := openSession(cmd, opts)
			if err != nil {
				return err
			}

			result := sess.entries.List(cmd.Context(), usecase.ListInput{
				Term:  search,
				Field: field,
				Sort:  query.ParseSortMode(sortBy),
			})

			switch format {
			case "json":
				err = outputJSON(cmd.OutOrStdout(), toListOutput(result.Entries))
			case "yaml":
				err = outputYAML(cmd.OutOrStdout(), toListOutput(result.Entries))
			default:
				outputTable(cmd.OutOrStdout(), result.Entries, getTerminalWidth())
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.ErrOrStderr(), result.Status())
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Case-insensitive search term")
	cmd.Flags().StringVar(&field, "field", query.AnyField, "Field to search in (see 'pixievault fields')")
	cmd.Flags().StringVar(&sortBy, "sort", string(query.SortByName), "Sort order: az, added, updated, or used")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json, or yaml")

	return cmd
}

type listOutputEntry struct {
	ID           string  `json:"id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	Protocol     string  `json:"protocol" yaml:"protocol"`
	Website      string  `json:"website" yaml:"website"`
	Username     string  `json:"username" yaml:"username"`
	Created      string  `json:"created" yaml:"created"`
	Updated      string  `json:"updated" yaml:"updated"`
	AccessCount  int64   `json:"access_count" yaml:"access_count"`
	LastAccessed *string `json:"last_accessed,omitempty" yaml:"last_accessed,omitempty"`
}

// toListOutput drops passwords, notes, and custom values from the listing.
func toListOutput(entries []vault.Entry) []listOutputEntry {
	out := make([]listOutputEntry, 0, len(entries))
	for _, e := range entries {
		item := listOutputEntry{
			ID:          e.ID,
			Name:        e.Name,
			Protocol:    e.Protocol,
			Website:     e.Website,
			Username:    e.Username,
			Created:     time.Unix(e.CreatedAt, 0).UTC().Format(time.RFC3339),
			Updated:     time.Unix(e.UpdatedAt, 0).UTC().Format(time.RFC3339),
			AccessCount: e.AccessCount,
		}
		if e.LastAccessAt != nil {
			last := time.Unix(*e.LastAccessAt, 0).UTC().Format(time.RFC3339)
			item.LastAccessed = &last
		}
		out = append(out, item)
	}
	return out
}

func outputJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func outputYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

func checkFormat(format string, valid ...string) error {
	for _, v := range valid {
		if format == v {
			return nil
		}
	}
	return fmt.Errorf("invalid format: %s (valid values: %v)", format, valid)
}

func getTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// shortID shows the first 8 characters of an id.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

func shortDate(ts int64, missing string) string {
	if ts == 0 {
		return missing
	}
	return time.Unix(ts, 0).Format("01/02/06")
}

// columnWidths holds the maximum display widths of the free-text columns.
type columnWidths struct {
	name     int
	protocol int
	website  int
	username int
}

// calculateColumnWidths splits what is left of termWidth after the fixed
// columns between the text columns, giving name and website the larger share.
func calculateColumnWidths(termWidth int) columnWidths {
	const (
		numColumns  = 7
		idWidth     = 11 // "xxxxxxxx..."
		createdW    = 8  // "01/02/06"
		lastAccessW = 11 // "Last Access"
	)

	available := termWidth - numColumns*3 - idWidth - createdW - lastAccessW
	if available < 40 {
		available = 40
	}

	protocol := min(available/8, 10)
	username := available / 4
	rest := available - protocol - username

	return columnWidths{
		name:     rest / 2,
		protocol: protocol,
		website:  rest - rest/2,
		username: username,
	}
}

func outputTable(w io.Writer, entries []vault.Entry, termWidth int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	widths := calculateColumnWidths(termWidth)

	// Cells are truncated with go-runewidth before they reach the table,
	// which keeps wide characters aligned.
	t.AppendHeader(table.Row{"Name", "Protocol", "Website", "UN", "ID", "Created", "Last Access"})

	for _, e := range entries {
		t.AppendRow(table.Row{
			runewidth.Truncate(e.Name, widths.name, "..."),
			runewidth.Truncate(e.Protocol, widths.protocol, "..."),
			runewidth.Truncate(e.Website, widths.website, "..."),
			runewidth.Truncate(e.Username, widths.username, "..."),
			shortID(e.ID),
			shortDate(e.CreatedAt, "N/A"),
			shortDate(e.LastAccess(), "Never"),
		})
	}

	t.Render()
}
