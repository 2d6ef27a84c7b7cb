package cli

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/utakatalp/prem-predictor/internal/mcptools"
)

func (rt *runtime) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run an MCP server over stdin/stdout",
		Long: `Run a Model Context Protocol server on stdin/stdout exposing
evaluate_prediction, score_challenge_answer and odds_summary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), rt.cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()

			server, tools := mcptools.NewServer(a.svc, rt.version)
			for _, t := range tools {
				a.log.WithField("tool", t.Name).Debug("registered MCP tool")
			}
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
