// ABOUTME: MCP tool definitions and handlers
// ABOUTME: Exposes listing, insertion, reordering, removal, and order checks to AI agents

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harper/sortable/internal/group"
	"github.com/harper/sortable/internal/models"
	"github.com/harper/sortable/internal/sortable"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	s.registerListRowsTool()
	s.registerAddRowTool()
	s.registerMoveRowTool()
	s.registerMoveToTopTool()
	s.registerMoveToBottomTool()
	s.registerRemoveRowTool()
	s.registerCheckOrderTool()
}

// RowOutput defines output for row tools.
type RowOutput struct {
	ID        string            `json:"id"`
	Position  int               `json:"position"`
	Values    map[string]string `json:"values"`
	CreatedAt time.Time         `json:"created_at"`
}

func rowOutput(row *models.Row) RowOutput {
	return RowOutput{
		ID:        row.ID.String(),
		Position:  row.Position,
		Values:    row.Values,
		CreatedAt: row.CreatedAt,
	}
}

func textResult(output any) *mcp.CallToolResult {
	jsonBytes, _ := json.MarshalIndent(output, "", "  ") //nolint:errchkjson // output is always serializable
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(jsonBytes)}},
	}
}

var idSchema = map[string]interface{}{
	"type":        "string",
	"description": "Row id or a unique prefix of it",
}

// resolve expands a row reference and returns the stored row.
func (s *Server) resolve(ctx context.Context, ref string) (*models.Row, error) {
	id, err := s.repo.ResolveID(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("row '%s' not found: %w", ref, err)
	}
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("row '%s' not found: %w", ref, err)
	}
	return row, nil
}

func (s *Server) reload(ctx context.Context, id uuid.UUID) (RowOutput, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return RowOutput{}, fmt.Errorf("failed to reload row: %w", err)
	}
	return rowOutput(row), nil
}

// ListRowsInput defines input for list_rows tool.
type ListRowsInput struct {
	Group map[string]string `json:"group,omitempty"`
}

// ListRowsOutput defines output for list_rows tool.
type ListRowsOutput struct {
	Rows  []RowOutput `json:"rows"`
	Count int         `json:"count"`
}

func (s *Server) registerListRowsTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_rows",
		Description: "List rows in position order. Pass group values to list one group only; omit to list every group.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"group": map[string]interface{}{
					"type":                 "object",
					"description":          "Values of the group columns, e.g. {\"list\": \"inbox\"}. Missing columns match NULL.",
					"additionalProperties": map[string]interface{}{"type": "string"},
				},
			},
		},
	}, s.handleListRows)
}

func (s *Server) handleListRows(ctx context.Context, _ *mcp.CallToolRequest, input ListRowsInput) (*mcp.CallToolResult, ListRowsOutput, error) {
	var rows []*models.Row
	var err error
	if len(input.Group) == 0 {
		rows, err = s.repo.ListAll(ctx)
	} else {
		rows, err = s.repo.List(ctx, group.FromValues(input.Group, s.engine.Config().Group))
	}
	if err != nil {
		return nil, ListRowsOutput{}, fmt.Errorf("failed to list rows: %w", err)
	}

	outputs := make([]RowOutput, len(rows))
	for i, row := range rows {
		outputs[i] = rowOutput(row)
	}
	output := ListRowsOutput{Rows: outputs, Count: len(outputs)}
	return textResult(output), output, nil
}

// AddRowInput defines input for add_row tool.
type AddRowInput struct {
	Values   map[string]string `json:"values"`
	Position *int              `json:"position,omitempty"`
}

func (s *Server) registerAddRowTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "add_row",
		Description: "Add a row. Without a position it is appended to the end of its group; with one, later rows move down to make room.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"values": map[string]interface{}{
					"type":                 "object",
					"description":          "Column values, e.g. {\"list\": \"inbox\", \"title\": \"buy milk\"}",
					"additionalProperties": map[string]interface{}{"type": "string"},
				},
				"position": map[string]interface{}{
					"type":        "integer",
					"description": "Optional position to insert at; clamped to the group's range",
				},
			},
			"required": []string{"values"},
		},
	}, s.handleAddRow)
}

func (s *Server) handleAddRow(ctx context.Context, _ *mcp.CallToolRequest, input AddRowInput) (*mcp.CallToolResult, RowOutput, error) {
	if err := models.ValidateValues(input.Values); err != nil {
		return nil, RowOutput{}, err
	}

	var row *models.Row
	if input.Position != nil {
		row = models.NewRowAt(input.Values, *input.Position)
	} else {
		row = models.NewRow(input.Values)
	}
	if err := s.engine.Save(ctx, row); err != nil {
		return nil, RowOutput{}, fmt.Errorf("failed to add row: %w", err)
	}

	output := rowOutput(row)
	return textResult(output), output, nil
}

// MoveRowInput defines input for move_row tool.
type MoveRowInput struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}

func (s *Server) registerMoveRowTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "move_row",
		Description: "Move a row to an exact position within its group. Rows in between shift by one step.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"id": idSchema,
				"position": map[string]interface{}{
					"type":        "integer",
					"description": "Target position; clamped to the first or last slot of the group",
				},
			},
			"required": []string{"id", "position"},
		},
	}, s.handleMoveRow)
}

func (s *Server) handleMoveRow(ctx context.Context, _ *mcp.CallToolRequest, input MoveRowInput) (*mcp.CallToolResult, RowOutput, error) {
	row, err := s.resolve(ctx, input.ID)
	if err != nil {
		return nil, RowOutput{}, err
	}
	if err := s.engine.Move(ctx, row.ID, input.Position); err != nil {
		return nil, RowOutput{}, fmt.Errorf("failed to move row: %w", err)
	}
	output, err := s.reload(ctx, row.ID)
	if err != nil {
		return nil, RowOutput{}, err
	}
	return textResult(output), output, nil
}

// RowRefInput defines input for tools acting on one row.
type RowRefInput struct {
	ID string `json:"id"`
}

func (s *Server) registerMoveToTopTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "move_to_top",
		Description: "Move a row to the first position of its group.",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"id": idSchema},
			"required":   []string{"id"},
		},
	}, s.handleMoveToTop)
}

func (s *Server) handleMoveToTop(ctx context.Context, _ *mcp.CallToolRequest, input RowRefInput) (*mcp.CallToolResult, RowOutput, error) {
	return s.moveEnd(ctx, input.ID, s.engine.ToTop)
}

func (s *Server) registerMoveToBottomTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "move_to_bottom",
		Description: "Move a row to the last position of its group.",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"id": idSchema},
			"required":   []string{"id"},
		},
	}, s.handleMoveToBottom)
}

func (s *Server) handleMoveToBottom(ctx context.Context, _ *mcp.CallToolRequest, input RowRefInput) (*mcp.CallToolResult, RowOutput, error) {
	return s.moveEnd(ctx, input.ID, s.engine.ToBottom)
}

func (s *Server) moveEnd(ctx context.Context, ref string, op func(context.Context, uuid.UUID) error) (*mcp.CallToolResult, RowOutput, error) {
	row, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, RowOutput{}, err
	}
	if err := op(ctx, row.ID); err != nil {
		return nil, RowOutput{}, fmt.Errorf("failed to move row: %w", err)
	}
	output, err := s.reload(ctx, row.ID)
	if err != nil {
		return nil, RowOutput{}, err
	}
	return textResult(output), output, nil
}

// RemoveRowOutput defines output for remove_row tool.
type RemoveRowOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) registerRemoveRowTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "remove_row",
		Description: "Remove a row. Later rows in its group move up to close the gap. This cannot be undone.",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"id": idSchema},
			"required":   []string{"id"},
		},
	}, s.handleRemoveRow)
}

func (s *Server) handleRemoveRow(ctx context.Context, _ *mcp.CallToolRequest, input RowRefInput) (*mcp.CallToolResult, RemoveRowOutput, error) {
	row, err := s.resolve(ctx, input.ID)
	if err != nil {
		return nil, RemoveRowOutput{}, err
	}
	if err := s.engine.Remove(ctx, row.ID); err != nil {
		return nil, RemoveRowOutput{}, fmt.Errorf("failed to remove row: %w", err)
	}

	output := RemoveRowOutput{
		Success: true,
		Message: fmt.Sprintf("Removed %s from position %d", row.ID, row.Position),
	}
	return textResult(output), output, nil
}

// ViolationOutput describes one group that failed the order check.
type ViolationOutput struct {
	Group     string `json:"group"`
	Positions []int  `json:"positions"`
	Reason    string `json:"reason"`
}

// CheckOrderOutput defines output for check_order tool.
type CheckOrderOutput struct {
	OK         bool              `json:"ok"`
	Rows       int               `json:"rows"`
	Violations []ViolationOutput `json:"violations,omitempty"`
}

// CheckOrderInput is empty but required for type.
type CheckOrderInput struct{}

func (s *Server) registerCheckOrderTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "check_order",
		Description: "Verify that every group has unique, gap-free positions.",
		InputSchema: map[string]interface{}{
			"type": "object",
		},
	}, s.handleCheckOrder)
}

func (s *Server) handleCheckOrder(ctx context.Context, _ *mcp.CallToolRequest, _ CheckOrderInput) (*mcp.CallToolResult, CheckOrderOutput, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, CheckOrderOutput{}, fmt.Errorf("failed to list rows: %w", err)
	}

	output := CheckOrderOutput{OK: true, Rows: len(rows)}
	var verr *sortable.ViolationError
	if err := s.engine.Verify(rows); errors.As(err, &verr) {
		output.OK = false
		for _, v := range verr.Violations {
			output.Violations = append(output.Violations, ViolationOutput{
				Group:     v.Group,
				Positions: v.Positions,
				Reason:    v.Reason,
			})
		}
	} else if err != nil {
		return nil, CheckOrderOutput{}, err
	}
	return textResult(output), output, nil
}
