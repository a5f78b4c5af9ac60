package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixievault/pixievault/internal/mcp"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server",
		Long:  "Start the Model Context Protocol server for pixievault on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := openSession(cmd, opts)
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			server := mcp.NewServer(sess.entries, sess.log, version)
			return server.Run(cmd.Context())
		},
	}

	return cmd
}
