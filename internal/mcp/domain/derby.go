package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/echovale/cubederby/internal/derby"
	"github.com/echovale/cubederby/internal/derby/service"
)

// defaultBatchRuns caps tool latency when the client does not ask for a
// specific batch size.
const defaultBatchRuns = 1000

// RunMatchInput is the derby_run_match tool input.
type RunMatchInput struct {
	Cubes           []string `json:"cubes,omitempty" jsonschema:"cube names racing the match (defaults to the event roster)"`
	Pads            int      `json:"pads,omitempty" jsonschema:"first-leg track length in pads (default 23)"`
	Seed            int64    `json:"seed,omitempty" jsonschema:"dice seed; 0 draws a random seed"`
	Shuffle         bool     `json:"shuffle,omitempty" jsonschema:"shuffle the starting stack order"`
	Half            bool     `json:"half,omitempty" jsonschema:"stop after the first leg"`
	CamellyaTrigger bool     `json:"camellya_trigger,omitempty" jsonschema:"arm the corrected Camellya group boost"`
}

// MatchStanding is one cube's final placement in a match result.
type MatchStanding struct {
	Rank int    `json:"rank" jsonschema:"final rank, 1 is furthest along"`
	Name string `json:"name" jsonschema:"cube name"`
	Pad  int    `json:"pad" jsonschema:"pad index the cube finished on"`
}

// RunMatchResult is the derby_run_match tool output.
type RunMatchResult struct {
	Seed      int64           `json:"seed" jsonschema:"seed the dice were rolled with"`
	Pads      int             `json:"pads" jsonschema:"first-leg track length"`
	FirstLeg  []string        `json:"first_leg" jsonschema:"first-leg winners in arrival order"`
	SecondLeg []string        `json:"second_leg,omitempty" jsonschema:"second-leg winners in arrival order (absent for half runs)"`
	Standings []MatchStanding `json:"standings" jsonschema:"final standings, rank 1 first"`
}

// RunMatchTool defines the MCP tool schema for racing one match.
func RunMatchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "derby_run_match",
		Description: "Races one cube derby match (two legs, or one with half=true) and reports winners and standings.",
	}
}

// RunMatchHandler races a single match through the derby service.
func RunMatchHandler(svc *service.Service) mcp.ToolHandlerFor[RunMatchInput, RunMatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RunMatchInput) (*mcp.CallToolResult, RunMatchResult, error) {
		names := input.Cubes
		if len(names) == 0 {
			names = derby.DefaultRoster()
		}
		report, err := svc.RunMatch(ctx, service.MatchRequest{
			Names:    names,
			Pads:     input.Pads,
			Seed:     input.Seed,
			Shuffle:  input.Shuffle,
			HalfOnly: input.Half,
			Rules:    derby.Ruleset{CamellyaTrigger: input.CamellyaTrigger},
		})
		if err != nil {
			return nil, RunMatchResult{}, fmt.Errorf("run match: %w", err)
		}

		result := RunMatchResult{
			Seed:      report.Seed,
			Pads:      report.Pads,
			FirstLeg:  report.FirstLeg,
			SecondLeg: report.SecondLeg,
		}
		for _, standing := range report.Standings {
			result.Standings = append(result.Standings, MatchStanding{
				Rank: standing.Rank,
				Name: standing.Name,
				Pad:  standing.Pad,
			})
		}

		summary := fmt.Sprintf("First leg: %s (seed %d)", strings.Join(report.FirstLeg, ", "), report.Seed)
		if len(report.SecondLeg) > 0 {
			summary = fmt.Sprintf("First leg: %s; second leg: %s (seed %d)",
				strings.Join(report.FirstLeg, ", "), strings.Join(report.SecondLeg, ", "), report.Seed)
		}
		return textResult(summary), result, nil
	}
}

// RunBatchInput is the derby_run_batch tool input.
type RunBatchInput struct {
	Cubes           []string `json:"cubes,omitempty" jsonschema:"cube names racing every match (defaults to the event roster)"`
	Pads            int      `json:"pads,omitempty" jsonschema:"first-leg track length in pads (default 23)"`
	Runs            int      `json:"runs,omitempty" jsonschema:"number of full matches to race (default 1000)"`
	Seed            int64    `json:"seed,omitempty" jsonschema:"base dice seed; 0 draws a random seed"`
	Shuffle         bool     `json:"shuffle,omitempty" jsonschema:"shuffle each match's starting stack order"`
	CamellyaTrigger bool     `json:"camellya_trigger,omitempty" jsonschema:"arm the corrected Camellya group boost"`
}

// BatchRate is one cube's tally in a batch result.
type BatchRate struct {
	Name  string  `json:"name" jsonschema:"cube name"`
	Wins  int     `json:"wins" jsonschema:"leg wins across the batch"`
	Share float64 `json:"share" jsonschema:"normalized share of all leg wins"`
}

// RunBatchResult is the derby_run_batch tool output.
type RunBatchResult struct {
	Seed     int64       `json:"seed" jsonschema:"base seed the batch was rolled with"`
	Runs     int         `json:"runs" jsonschema:"matches raced"`
	Failures int         `json:"failures" jsonschema:"matches aborted by engine errors"`
	Rates    []BatchRate `json:"rates" jsonschema:"win rates sorted by share descending"`
}

// RunBatchTool defines the MCP tool schema for a Monte Carlo batch.
func RunBatchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "derby_run_batch",
		Description: "Races many derby matches with the same roster and reports each cube's win rate.",
	}
}

// RunBatchHandler races a Monte Carlo batch through the derby service.
func RunBatchHandler(svc *service.Service) mcp.ToolHandlerFor[RunBatchInput, RunBatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RunBatchInput) (*mcp.CallToolResult, RunBatchResult, error) {
		names := input.Cubes
		if len(names) == 0 {
			names = derby.DefaultRoster()
		}
		runs := input.Runs
		if runs == 0 {
			runs = defaultBatchRuns
		}
		report, err := svc.RunBatch(ctx, service.BatchRequest{
			Names:   names,
			Pads:    input.Pads,
			Runs:    runs,
			Seed:    input.Seed,
			Shuffle: input.Shuffle,
			Rules:   derby.Ruleset{CamellyaTrigger: input.CamellyaTrigger},
		})
		if err != nil {
			return nil, RunBatchResult{}, fmt.Errorf("run batch: %w", err)
		}

		result := RunBatchResult{
			Seed:     report.Seed,
			Runs:     report.Result.Runs,
			Failures: len(report.Result.Failures),
		}
		for _, rate := range report.Result.Rates {
			result.Rates = append(result.Rates, BatchRate{Name: rate.Name, Wins: rate.Wins, Share: rate.Share})
		}

		summary := fmt.Sprintf("%d runs (seed %d)", result.Runs, result.Seed)
		if len(result.Rates) > 0 {
			top := result.Rates[0]
			summary = fmt.Sprintf("%s: %s leads with %.1f%%", summary, top.Name, top.Share*100)
		}
		return textResult(summary), result, nil
	}
}

// ListCubesInput is the derby_list_cubes tool input.
type ListCubesInput struct{}

// CubeInfo is one ability-catalog entry.
type CubeInfo struct {
	Name        string `json:"name" jsonschema:"cube name"`
	Description string `json:"description" jsonschema:"published ability text"`
}

// ListCubesResult is the derby_list_cubes tool output.
type ListCubesResult struct {
	Cubes []CubeInfo `json:"cubes" jsonschema:"special-ability cubes in name order"`
}

// ListCubesTool defines the MCP tool schema for the ability catalog.
func ListCubesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "derby_list_cubes",
		Description: "Lists the special-ability cubes and their published ability text. Unlisted names race with the default behavior.",
	}
}

// ListCubesHandler returns the ability catalog.
func ListCubesHandler(svc *service.Service) mcp.ToolHandlerFor[ListCubesInput, ListCubesResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ ListCubesInput) (*mcp.CallToolResult, ListCubesResult, error) {
		var result ListCubesResult
		names := make([]string, 0)
		for _, info := range svc.Catalog() {
			result.Cubes = append(result.Cubes, CubeInfo{Name: info.Name, Description: info.Description})
			names = append(names, info.Name)
		}
		return textResult(fmt.Sprintf("%d cubes: %s", len(names), strings.Join(names, ", "))), result, nil
	}
}

// textResult wraps a one-line summary for clients that render plain
// content alongside the structured result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
