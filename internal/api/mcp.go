package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kresler/callsight/internal/history"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Analyzer TranscriptAnalyzer
	Store    *history.Store
}

// NewMCPServer creates an MCP server exposing transcript analysis and the
// history log as tools, plus the raw CSV as a resource.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"callsight",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("callsight — summarize customer-call transcripts, label their sentiment, and keep a reviewable history."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("analyze_transcript",
			mcp.WithDescription("Summarize a customer-call transcript, classify its sentiment, and append the result to the history log."),
			mcp.WithString("transcript", mcp.Description("The raw call transcript text"), mcp.Required()),
		),
		mcpAnalyzeTranscript(deps),
	)

	s.AddTool(
		mcp.NewTool("list_history",
			mcp.WithDescription("Return the most recent stored analyses in append order."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of records (default 10)")),
		),
		mcpListHistory(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"history://csv",
			"Analysis History CSV",
			mcp.WithResourceDescription("The raw append-only history file"),
			mcp.WithMIMEType("text/csv"),
		),
		mcpResourceHistory(deps),
	)

	return s
}

func mcpAnalyzeTranscript(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		transcript, err := req.RequireString("transcript")
		if err != nil {
			return mcpError("transcript is required"), nil
		}

		res, err := deps.Analyzer.Analyze(ctx, transcript)
		if err != nil {
			return mcpError(fmt.Sprintf("analysis failed: %v", err)), nil
		}

		rec := history.Record{
			Timestamp:  time.Now().UTC(),
			Transcript: res.Transcript,
			Summary:    res.Summary,
			Sentiment:  string(res.Sentiment),
		}
		if err := deps.Store.Append(rec); err != nil {
			return mcpError(fmt.Sprintf("analysis succeeded but saving failed: %v", err)), nil
		}

		b, err := json.Marshal(recordView{
			Timestamp:  rec.TimestampString(),
			Transcript: rec.Transcript,
			Summary:    rec.Summary,
			Sentiment:  rec.Sentiment,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpListHistory(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 100 {
			limit = 100
		}

		records, err := deps.Store.ReadAll()
		if err != nil {
			return mcpError(fmt.Sprintf("reading history: %v", err)), nil
		}
		if len(records) > limit {
			records = records[len(records)-limit:]
		}

		views := make([]recordView, len(records))
		for i, rec := range records {
			views[i] = recordView{
				Timestamp:  rec.TimestampString(),
				Transcript: rec.Transcript,
				Summary:    rec.Summary,
				Sentiment:  rec.Sentiment,
			}
		}

		b, err := json.Marshal(views)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal records: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceHistory(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		var sb strings.Builder
		if _, err := deps.Store.ExportTo(&sb); err != nil {
			if errors.Is(err, history.ErrNoHistory) {
				sb.Reset()
			} else {
				return nil, fmt.Errorf("exporting history: %w", err)
			}
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "history://csv",
				MIMEType: "text/csv",
				Text:     sb.String(),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return mcp.NewToolResultText(text)
}

func mcpError(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultError(msg)
}
