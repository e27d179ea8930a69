// ABOUTME: Tests for export, import, and migration
// ABOUTME: Covers YAML and JSON backups, markdown export, and backend-to-backend copies

package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/harper/sortable/internal/models"
)

func TestExportToYAML(t *testing.T) {
	db := testSQLite(t)
	seed(t, db, "inbox", 1, 2)

	data, err := ExportToYAML(context.Background(), db)
	if err != nil {
		t.Fatalf("failed to export: %v", err)
	}
	yamlStr := string(data)

	if !strings.Contains(yamlStr, "version: \"1.0\"") {
		t.Error("missing version header")
	}
	if !strings.Contains(yamlStr, "tool: sortable") {
		t.Error("missing tool header")
	}
	if !strings.Contains(yamlStr, "table: items") {
		t.Error("missing table header")
	}
	if !strings.Contains(yamlStr, "list: inbox") {
		t.Error("missing row values")
	}
	if !strings.Contains(yamlStr, "position: 2") {
		t.Error("missing position")
	}
}

func TestBackupRoundTrip(t *testing.T) {
	for _, format := range []string{"yaml", "json"} {
		t.Run(format, func(t *testing.T) {
			ctx := context.Background()
			src := testSQLite(t)
			rows := seed(t, src, "inbox", 1, 2, 3)

			var data []byte
			var err error
			if format == "json" {
				data, err = ExportToJSON(ctx, src)
			} else {
				data, err = ExportToYAML(ctx, src)
			}
			if err != nil {
				t.Fatalf("failed to export: %v", err)
			}

			backup, err := ParseBackup(data, format)
			if err != nil {
				t.Fatalf("failed to parse: %v", err)
			}
			dst := testBadger(t)
			n, err := ImportBackup(ctx, dst, backup, false)
			if err != nil {
				t.Fatalf("failed to import: %v", err)
			}
			if n != 3 {
				t.Errorf("expected 3 rows imported, got %d", n)
			}
			if got := positionsOf(t, dst, rows); !equalInts(got, []int{1, 2, 3}) {
				t.Errorf("unexpected positions after import: %v", got)
			}
			got, _ := dst.Get(ctx, rows[1].ID)
			if got.Values["title"] != rows[1].Values["title"] {
				t.Errorf("title mismatch: %q vs %q", got.Values["title"], rows[1].Values["title"])
			}
		})
	}
}

func TestParseBackup_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format string
		want   string
	}{
		{"bad yaml", "version: [", "yaml", "parse yaml"},
		{"bad json", "{", "json", "parse json"},
		{"wrong version", "version: \"9\"\ntool: sortable\n", "yaml", "unsupported backup version"},
		{"wrong tool", "version: \"1.0\"\ntool: position\n", "yaml", "wrong tool"},
		{"unknown format", "", "toml", "unknown backup format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBackup([]byte(tt.data), tt.format)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestImportBackup_FieldMismatch(t *testing.T) {
	db := testSQLite(t)
	backup := &Backup{Version: BackupVersion, Tool: "sortable", Field: "rank"}
	if _, err := ImportBackup(context.Background(), db, backup, false); err == nil {
		t.Error("expected error for field mismatch")
	}
}

// backupOf builds an importable backup from rows.
func backupOf(rows ...*models.Row) *Backup {
	b := &Backup{Version: BackupVersion, Tool: "sortable", Field: "position"}
	for _, r := range rows {
		b.Rows = append(b.Rows, RowBackup{ID: r.ID.String(), Position: r.Position, Values: r.Values, CreatedAt: r.CreatedAt})
	}
	return b
}

func TestImportBackup_Replace(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		seed(t, repo, "old", 1, 2)

		fresh := models.NewRow(map[string]string{"list": "new", "title": "x"})
		fresh.Position = 1
		n, err := ImportBackup(ctx, repo, backupOf(fresh), true)
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 row imported, got %d", n)
		}
		rows, err := repo.ListAll(ctx)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(rows) != 1 || rows[0].ID != fresh.ID {
			t.Errorf("expected only the imported row, got %d rows", len(rows))
		}
	})
}

func TestImportBackup_FailureLeavesTableUntouched(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		existing := seed(t, repo, "old", 1, 2)

		fresh := models.NewRow(map[string]string{"list": "new", "title": "x"})
		fresh.Position = 1
		// The second copy of fresh collides after the table was cleared.
		for _, replace := range []bool{true, false} {
			_, err := ImportBackup(ctx, repo, backupOf(fresh, fresh), replace)
			if !errors.Is(err, ErrExists) {
				t.Errorf("replace=%v: expected ErrExists, got %v", replace, err)
			}
			rows, err := repo.ListAll(ctx)
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if len(rows) != 2 {
				t.Errorf("replace=%v: expected the 2 original rows, got %d", replace, len(rows))
			}
			if got := positionsOf(t, repo, existing); !equalInts(got, []int{1, 2}) {
				t.Errorf("replace=%v: unexpected positions: %v", replace, got)
			}
		}
	})
}

func TestImportBackup_ExistingID(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		rows := seed(t, repo, "a", 1)
		if _, err := ImportBackup(ctx, repo, backupOf(rows...), false); !errors.Is(err, ErrExists) {
			t.Errorf("expected ErrExists, got %v", err)
		}
	})
}

func TestImportBackup_InvalidID(t *testing.T) {
	db := testSQLite(t)
	backup := &Backup{Version: BackupVersion, Tool: "sortable", Rows: []RowBackup{{ID: "nope"}}}
	if _, err := ImportBackup(context.Background(), db, backup, false); err == nil {
		t.Error("expected error for invalid id")
	}
}

func TestExportToMarkdown(t *testing.T) {
	db := testSQLite(t)
	seed(t, db, "inbox", 1, 2)
	seed(t, db, "done", 1)

	key := func(r *models.Row) string { return r.Values["list"] }
	data, err := ExportToMarkdown(context.Background(), db, key)
	if err != nil {
		t.Fatalf("failed to export: %v", err)
	}
	md := string(data)

	if !strings.Contains(md, "# items Export") {
		t.Error("missing title")
	}
	if !strings.Contains(md, "## inbox") || !strings.Contains(md, "## done") {
		t.Error("missing group headings")
	}
	if !strings.Contains(md, "| position | id | list | title |") {
		t.Error("missing table header")
	}
}

func TestExportToMarkdown_Empty(t *testing.T) {
	db := testSQLite(t)
	data, err := ExportToMarkdown(context.Background(), db, func(*models.Row) string { return "" })
	if err != nil {
		t.Fatalf("failed to export: %v", err)
	}
	if !strings.Contains(string(data), "No rows.") {
		t.Error("expected empty message")
	}
}

func TestMigrateData(t *testing.T) {
	ctx := context.Background()
	src := testSQLite(t)
	rows := seed(t, src, "a", 1, 2, 3)
	seed(t, src, "b", 1)

	dst := testBadger(t)
	summary, err := MigrateData(ctx, src, dst)
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if summary.Rows != 4 {
		t.Errorf("expected 4 rows, got %d", summary.Rows)
	}
	if got := positionsOf(t, dst, rows); !equalInts(got, []int{1, 2, 3}) {
		t.Errorf("unexpected positions in destination: %v", got)
	}
}

func TestMigrateData_IntoNonEmptyTarget(t *testing.T) {
	ctx := context.Background()
	src := testSQLite(t)
	rows := seed(t, src, "a", 1, 2)

	dst := testBadger(t)
	extra := seed(t, dst, "b", 1)
	if _, err := MigrateData(ctx, src, dst); err != nil {
		t.Fatalf("first migrate failed: %v", err)
	}

	// Reorder the source and migrate again over the earlier copy.
	err := src.Atomically(ctx, func(tx Tx) error {
		for i, p := range []int{2, 1} {
			moved := rows[i].Clone()
			moved.Position = p
			if err := tx.Save(ctx, moved); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reorder failed: %v", err)
	}
	summary, err := MigrateData(ctx, src, dst)
	if err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
	if summary.Rows != 2 {
		t.Errorf("expected 2 rows, got %d", summary.Rows)
	}
	if got := positionsOf(t, dst, rows); !equalInts(got, []int{2, 1}) {
		t.Errorf("destination not overwritten: %v", got)
	}
	if got := positionsOf(t, dst, extra); !equalInts(got, []int{1}) {
		t.Errorf("destination-only row changed: %v", got)
	}
}

func TestMigrateData_FieldMismatch(t *testing.T) {
	src := testSQLite(t)
	other := testSchema
	other.Field = "rank"
	dst, err := NewBadgerStore("", other, nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer dst.Close()

	if _, err := MigrateData(context.Background(), src, dst); err == nil {
		t.Error("expected error for field mismatch")
	}
}
