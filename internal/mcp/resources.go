// ABOUTME: MCP resource definitions
// ABOUTME: Provides a read-only ordered view of every group for AI agents

package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harper/sortable/internal/group"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const rowsURI = "sortable://rows"

// GroupOutput is one group of rows in position order.
type GroupOutput struct {
	Group string      `json:"group"`
	Rows  []RowOutput `json:"rows"`
}

// RowsResourceOutput defines the sortable://rows document.
type RowsResourceOutput struct {
	Table  string        `json:"table"`
	Groups []GroupOutput `json:"groups"`
	Count  int           `json:"count"`
}

func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		Name:        rowsURI,
		Description: "All rows of the table, grouped and in position order",
		URI:         rowsURI,
		MIMEType:    "application/json",
	}, s.handleRowsResource)
}

func (s *Server) handleRowsResource(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}

	output := RowsResourceOutput{Table: s.repo.Schema().Table, Count: len(rows)}
	index := map[string]int{}
	for _, row := range rows {
		key := group.Key(s.engine.Conditions(row))
		i, ok := index[key]
		if !ok {
			i = len(output.Groups)
			index[key] = i
			output.Groups = append(output.Groups, GroupOutput{Group: key})
		}
		output.Groups[i].Rows = append(output.Groups[i].Rows, rowOutput(row))
	}

	jsonBytes, _ := json.MarshalIndent(output, "", "  ") //nolint:errchkjson // output is always serializable

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      rowsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		},
	}, nil
}
