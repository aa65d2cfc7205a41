// ABOUTME: Configuration MCP tool handlers
// ABOUTME: Exposes the expiring-soon alert window and the reindex operation
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rmbastos/atadesk/db"
)

type ConfigHandlers struct {
	db *sql.DB
}

func NewConfigHandlers(database *sql.DB) *ConfigHandlers {
	return &ConfigHandlers{db: database}
}

type GetAlertDaysInput struct{}

type AlertDaysOutput struct {
	AlertDays int `json:"alert_days"`
}

func (h *ConfigHandlers) GetAlertDays(_ context.Context, request *mcp.CallToolRequest, input GetAlertDaysInput) (*mcp.CallToolResult, AlertDaysOutput, error) {
	return nil, AlertDaysOutput{AlertDays: db.AlertDays(h.db)}, nil
}

type SetAlertDaysInput struct {
	AlertDays int `json:"alert_days" jsonschema:"Days before expiration that an ata counts as expiring soon (must be non-negative)"`
}

func (h *ConfigHandlers) SetAlertDays(_ context.Context, request *mcp.CallToolRequest, input SetAlertDaysInput) (*mcp.CallToolResult, AlertDaysOutput, error) {
	if input.AlertDays < 0 {
		return nil, AlertDaysOutput{}, fmt.Errorf("alert_days must be non-negative")
	}

	if err := db.SetParam(h.db, db.ParamAlertDays, strconv.Itoa(input.AlertDays)); err != nil {
		return nil, AlertDaysOutput{}, fmt.Errorf("failed to save alert_days: %w", err)
	}

	return nil, AlertDaysOutput{AlertDays: input.AlertDays}, nil
}

type ReindexInput struct{}

type ReindexOutput struct {
	Done bool `json:"done"`
}

func (h *ConfigHandlers) Reindex(_ context.Context, request *mcp.CallToolRequest, input ReindexInput) (*mcp.CallToolResult, ReindexOutput, error) {
	if err := db.Reindex(h.db); err != nil {
		return nil, ReindexOutput{}, fmt.Errorf("failed to reindex: %w", err)
	}
	return nil, ReindexOutput{Done: true}, nil
}
