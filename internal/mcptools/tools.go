// Package mcptools exposes the scoring operations as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/utakatalp/prem-predictor/internal/game"
	"github.com/utakatalp/prem-predictor/internal/league"
	"github.com/utakatalp/prem-predictor/internal/scoring"
)

type EvaluateArgs struct {
	Prediction       scoring.Prediction `json:"prediction" jsonschema:"Predicted top eight, bottom three and optional favourite team"`
	ActualFinalTable league.FinalTable  `json:"actualFinalTable" jsonschema:"Actual final standings, champion first"`
	UseOdds          *bool              `json:"useOdds,omitempty" jsonschema:"Apply odds-based surprise multipliers (default true)"`
}

type ChallengeArgs struct {
	UserAnswer    float64 `json:"userAnswer" jsonschema:"The player's answer"`
	CorrectAnswer float64 `json:"correctAnswer" jsonschema:"The correct answer"`
	Kind          string  `json:"kind,omitempty" jsonschema:"number or percentage; anything else earns the flat base points"`
}

type OddsSummaryArgs struct{}

type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Tools struct {
	svc *game.Service
}

func New(svc *game.Service) *Tools {
	return &Tools{svc: svc}
}

// NewServer builds an MCP server with every tool registered.
func NewServer(svc *game.Service, version string) (*mcp.Server, []ToolInfo) {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "prem-predictor",
			Version: version,
		},
		nil,
	)
	return server, New(svc).Register(server)
}

// Register adds the tools to server and returns what was registered.
func (t *Tools) Register(server *mcp.Server) []ToolInfo {
	registry := make([]ToolInfo, 0, 3)

	addTool(server, &registry, &mcp.Tool{
		Name:        "evaluate_prediction",
		Description: "Scores a season prediction against an actual final table and returns the itemised breakdown",
	}, t.EvaluatePrediction)

	addTool(server, &registry, &mcp.Tool{
		Name:        "score_challenge_answer",
		Description: "Scores a weekly challenge answer by its distance from the correct answer",
	}, t.ScoreChallengeAnswer)

	addTool(server, &registry, &mcp.Tool{
		Name:        "odds_summary",
		Description: "Title favourites, longshots and relegation favourites from the current odds",
	}, t.OddsSummary)

	return registry
}

func addTool[T any](server *mcp.Server, registry *[]ToolInfo, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	*registry = append(*registry, ToolInfo{Name: tool.Name, Description: tool.Description})
	mcp.AddTool(server, tool, handler)
}

func (t *Tools) EvaluatePrediction(ctx context.Context, req *mcp.CallToolRequest, args EvaluateArgs) (*mcp.CallToolResult, any, error) {
	useOdds := args.UseOdds == nil || *args.UseOdds
	b, err := t.svc.Evaluate(ctx, args.Prediction, args.ActualFinalTable, useOdds)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(b), nil, nil
}

func (t *Tools) ScoreChallengeAnswer(ctx context.Context, req *mcp.CallToolRequest, args ChallengeArgs) (*mcp.CallToolResult, any, error) {
	points := scoring.ScoreChallengeAnswer(args.UserAnswer, args.CorrectAnswer, scoring.ChallengeKind(args.Kind))
	return toolJSON(map[string]int{"points": points}), nil, nil
}

func (t *Tools) OddsSummary(ctx context.Context, req *mcp.CallToolRequest, args OddsSummaryArgs) (*mcp.CallToolResult, any, error) {
	sum, err := t.svc.OddsSummary(ctx)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(sum), nil, nil
}

func toolJSON(v any) *mcp.CallToolResult {
	b, _ := json.MarshalIndent(v, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
