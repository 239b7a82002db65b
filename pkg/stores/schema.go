package stores

import (
	"context"
	"fmt"
	"strings"
)

// Column declares one column of a table.
type Column struct {
	Name string
	// Type is the declared SQLite type.
	Type string
	// Default is the SQL literal used when the column is added to an
	// existing table, empty for NULL.
	Default string
}

// TableSchema declares the columns a table is expected to have, in order.
// Migrations create the tables; the declaration lets EnsureSchema add
// columns that an older database file is missing.
type TableSchema struct {
	Name    string
	Columns []Column
}

// Tables is the declared schema of every table, in dependency order.
var Tables = []TableSchema{
	{
		Name: TablePartners,
		Columns: []Column{
			{Name: "id", Type: "INTEGER"},
			{Name: "name", Type: "TEXT", Default: "''"},
			{Name: "participation_type", Type: "TEXT"},
			{Name: "expertise", Type: "TEXT"},
			{Name: "interaction_level", Type: "TEXT"},
			{Name: "phone", Type: "TEXT"},
		},
	},
	{
		Name: TableActionPlan,
		Columns: []Column{
			{Name: "id", Type: "INTEGER"},
			{Name: "objective", Type: "TEXT"},
			{Name: "activity", Type: "TEXT"},
			{Name: "responsible_party", Type: "TEXT"},
			{Name: "timeframe", Type: "TEXT"},
			{Name: "kpi", Type: "TEXT"},
			{Name: "status", Type: "TEXT", Default: "'in_progress'"},
			{Name: "priority", Type: "TEXT"},
			{Name: "task_type", Type: "TEXT", Default: "'moral'"},
		},
	},
	{
		Name: TableEvents,
		Columns: []Column{
			{Name: "id", Type: "INTEGER"},
			{Name: "name", Type: "TEXT", Default: "''"},
			{Name: "date", Type: "DATE"},
			{Name: "location", Type: "TEXT"},
			{Name: "attendees_count", Type: "INTEGER", Default: "0"},
			{Name: "rating", Type: "INTEGER"},
		},
	},
	{
		Name: TableReports,
		Columns: []Column{
			{Name: "id", Type: "INTEGER"},
			{Name: "report_date", Type: "TEXT"},
			{Name: "report_content", Type: "TEXT"},
		},
	},
}

// LookupTable returns the declared schema for name.
func LookupTable(name string) (TableSchema, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableSchema{}, false
}

// Column returns the declared column named name.
func (t TableSchema) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the declared column names in order.
func (t TableSchema) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func (c Column) createClause() string {
	if c.Name == "id" {
		return "id INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return c.addClause()
}

func (c Column) addClause() string {
	clause := c.Name + " " + c.Type
	if c.Default != "" {
		clause += " DEFAULT " + c.Default
	}
	return clause
}

// tableColumns returns the columns the table currently has, or nil when
// the table does not exist.
func (s *SQLiteStore) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer rows.Close()

	var cols map[string]bool
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		if cols == nil {
			cols = make(map[string]bool)
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns of %s: %w", table, err)
	}

	return cols, nil
}

// reconcileColumns adds every declared column missing from an existing
// table. Tables that do not exist yet are left to the migrations.
func (s *SQLiteStore) reconcileColumns(ctx context.Context) error {
	for _, t := range Tables {
		existing, err := s.tableColumns(ctx, t.Name)
		if err != nil {
			return err
		}
		if existing == nil {
			continue
		}

		for _, c := range t.Columns {
			if existing[c.Name] {
				continue
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", t.Name, c.addClause())
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to add column %s.%s: %w", t.Name, c.Name, err)
			}
			s.logger(ctx).Zerolog().Info().
				Str("table", t.Name).
				Str("column", c.Name).
				Msg("Added missing column")
		}
	}

	return nil
}

// createMissingTables recreates declared tables that are absent after the
// migrations ran, such as a table dropped by hand from a migrated file.
func (s *SQLiteStore) createMissingTables(ctx context.Context) error {
	for _, t := range Tables {
		existing, err := s.tableColumns(ctx, t.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		clauses := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			clauses[i] = c.createClause()
		}
		stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.Name, strings.Join(clauses, ", "))
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.Name, err)
		}
		s.logger(ctx).WithTable(t.Name).Info("Recreated missing table")
	}

	return nil
}

// isMissingSchema reports whether err is SQLite complaining about an
// absent table or column.
func isMissingSchema(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such column") ||
		strings.Contains(msg, "has no column named") ||
		strings.Contains(msg, "no such table")
}
