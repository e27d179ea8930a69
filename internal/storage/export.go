// ABOUTME: Export and import functionality for ordered rows
// ABOUTME: Supports YAML and JSON backup formats and markdown export

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harper/sortable/internal/models"
	"gopkg.in/yaml.v3"
)

// BackupVersion is the current backup format version.
const BackupVersion = "1.0"

// Backup represents the backup format shared by YAML and JSON.
type Backup struct {
	Version    string      `yaml:"version" json:"version"`
	ExportedAt time.Time   `yaml:"exported_at" json:"exported_at"`
	Tool       string      `yaml:"tool" json:"tool"`
	Table      string      `yaml:"table" json:"table"`
	Field      string      `yaml:"field" json:"field"`
	Rows       []RowBackup `yaml:"rows" json:"rows"`
}

// RowBackup represents a row in the backup format.
type RowBackup struct {
	ID        string            `yaml:"id" json:"id"`
	Position  int               `yaml:"position" json:"position"`
	Values    map[string]string `yaml:"values,omitempty" json:"values,omitempty"`
	CreatedAt time.Time         `yaml:"created_at" json:"created_at"`
}

// NewBackup snapshots every row of repo.
func NewBackup(ctx context.Context, repo Repository) (*Backup, error) {
	rows, err := repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	schema := repo.Schema()

	backup := &Backup{
		Version:    BackupVersion,
		ExportedAt: time.Now().UTC(),
		Tool:       "sortable",
		Table:      schema.Table,
		Field:      schema.Field,
		Rows:       make([]RowBackup, len(rows)),
	}
	for i, row := range rows {
		backup.Rows[i] = RowBackup{
			ID:        row.ID.String(),
			Position:  row.Position,
			Values:    row.Values,
			CreatedAt: row.CreatedAt,
		}
	}
	return backup, nil
}

// ExportToYAML exports all rows to YAML format.
func ExportToYAML(ctx context.Context, repo Repository) ([]byte, error) {
	backup, err := NewBackup(ctx, repo)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(backup)
}

// ExportToJSON exports all rows to indented JSON.
func ExportToJSON(ctx context.Context, repo Repository) ([]byte, error) {
	backup, err := NewBackup(ctx, repo)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(backup, "", "  ")
}

// ParseBackup decodes a YAML or JSON backup and checks its header.
func ParseBackup(data []byte, format string) (*Backup, error) {
	var backup Backup
	switch format {
	case "json":
		if err := json.Unmarshal(data, &backup); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	case "yaml", "":
		if err := yaml.Unmarshal(data, &backup); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown backup format %q", format)
	}

	if backup.Version != BackupVersion {
		return nil, fmt.Errorf("unsupported backup version: %s (expected %s)", backup.Version, BackupVersion)
	}
	if backup.Tool != "sortable" {
		return nil, fmt.Errorf("wrong tool: %s (expected sortable)", backup.Tool)
	}
	return &backup, nil
}

// ImportBackup restores rows exactly as exported, positions included, in one
// transaction: on error the table is left as it was. With replace, every
// existing row is deleted first; otherwise an id already stored fails the
// import with ErrExists.
func ImportBackup(ctx context.Context, repo Repository, backup *Backup, replace bool) (int, error) {
	schema := repo.Schema()
	if backup.Field != "" && backup.Field != schema.Field {
		return 0, fmt.Errorf("%w: backup field %q, table field %q", ErrSchema, backup.Field, schema.Field)
	}

	rows := make([]*models.Row, 0, len(backup.Rows))
	for _, rb := range backup.Rows {
		id, err := uuid.Parse(rb.ID)
		if err != nil {
			return 0, fmt.Errorf("invalid row ID %s: %w", rb.ID, err)
		}
		row := &models.Row{
			ID:        id,
			Position:  rb.Position,
			Values:    rb.Values,
			CreatedAt: rb.CreatedAt,
		}
		if row.Values == nil {
			row.Values = map[string]string{}
		}
		rows = append(rows, row)
	}

	err := repo.Atomically(ctx, func(tx Tx) error {
		if replace {
			if _, err := tx.DeleteAll(ctx); err != nil {
				return fmt.Errorf("clear table: %w", err)
			}
		}
		for _, row := range rows {
			if err := insertTx(ctx, tx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, row := range rows {
		row.MarkStored()
	}
	return len(rows), nil
}

// ExportToMarkdown renders rows as one numbered table per group.
// key maps a row to its group label.
func ExportToMarkdown(ctx context.Context, repo Repository, key func(*models.Row) string) ([]byte, error) {
	rows, err := repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	schema := repo.Schema()

	var sb strings.Builder
	now := time.Now().UTC()
	sb.WriteString(fmt.Sprintf("# %s Export - %s\n\n", schema.Table, now.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))

	if len(rows) == 0 {
		sb.WriteString("No rows.\n")
		return []byte(sb.String()), nil
	}

	var order []string
	groups := map[string][]*models.Row{}
	for _, row := range rows {
		k := key(row)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], row)
	}

	header := append([]string{schema.Field, "id"}, schema.Columns...)
	for _, k := range order {
		sb.WriteString(fmt.Sprintf("## %s\n\n", k))
		sb.WriteString("| " + strings.Join(header, " | ") + " |\n")
		sb.WriteString("|" + strings.Repeat("---|", len(header)) + "\n")
		for _, row := range groups[k] {
			cells := []string{fmt.Sprint(row.Position), row.ID.String()[:8]}
			for _, col := range schema.Columns {
				v, ok := row.Value(col)
				if !ok {
					v = "-"
				}
				cells = append(cells, strings.ReplaceAll(v, "|", `\|`))
			}
			sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
		sb.WriteString("\n")
	}
	return []byte(sb.String()), nil
}
