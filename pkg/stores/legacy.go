package stores

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Tables and columns written by the first version of the desk. Files
// created by it are carried forward by importLegacy.
const (
	legacyPartnersTable    = "parents"
	importedPartnersTable  = "parents_imported"
	legacyResponsibleParty = "responsibility"
)

// importLegacy moves data out of the older layout: rows of the parents
// table are appended to partners and the table is renamed so they are
// imported once, and action_plan.responsibility fills responsible_party
// wherever the latter is blank. The old column is left in place.
func (s *SQLiteStore) importLegacy(ctx context.Context) error {
	parents, err := s.tableColumns(ctx, legacyPartnersTable)
	if err != nil {
		return err
	}
	if parents != nil {
		if err := s.importLegacyPartners(ctx, parents); err != nil {
			return err
		}
	}

	plan, err := s.tableColumns(ctx, TableActionPlan)
	if err != nil {
		return err
	}
	if plan[legacyResponsibleParty] {
		result, err := s.db.ExecContext(ctx, fmt.Sprintf(
			`UPDATE %s SET responsible_party = %s
			WHERE (responsible_party IS NULL OR responsible_party = '')
			AND %s IS NOT NULL AND %s <> ''`,
			TableActionPlan, legacyResponsibleParty, legacyResponsibleParty, legacyResponsibleParty))
		if err != nil {
			return fmt.Errorf("failed to copy %s.%s: %w", TableActionPlan, legacyResponsibleParty, err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			s.logger(ctx).WithTable(TableActionPlan).WithRows(int(n)).Info("Copied legacy responsibility column")
		}
	}

	return nil
}

func (s *SQLiteStore) importLegacyPartners(ctx context.Context, legacyCols map[string]bool) error {
	schema, _ := LookupTable(TablePartners)

	var cols []string
	for _, c := range schema.Columns {
		if c.Name != "id" && legacyCols[c.Name] {
			cols = append(cols, c.Name)
		}
	}
	if len(cols) == 0 {
		return nil
	}
	list := strings.Join(cols, ", ")

	var imported int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, fmt.Sprintf(
			"INSERT INTO %s (%s) SELECT %s FROM %s ORDER BY id",
			TablePartners, list, list, legacyPartnersTable))
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", legacyPartnersTable, err)
		}
		imported, _ = result.RowsAffected()

		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			"ALTER TABLE %s RENAME TO %s", legacyPartnersTable, importedPartnersTable)); err != nil {
			return fmt.Errorf("failed to retire %s: %w", legacyPartnersTable, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger(ctx).WithTable(TablePartners).WithRows(int(imported)).Info("Imported legacy parents table")
	return nil
}
