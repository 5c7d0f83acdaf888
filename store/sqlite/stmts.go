package sqlite

import (
	"context"
	"fmt"
)

const recordColumns = "c.id, c.name, c.symbol, c.kind, c.wire, c.text, c.created_at"

// prepareStatements prepares all SQL statements for reuse.
func (s *sqliteStore) prepareStatements(ctx context.Context) error {
	var err error

	const sqlGet = "SELECT " + recordColumns + " FROM compositions c WHERE c.name = ?"
	if s.stmtGet, err = s.db.PrepareContext(ctx, sqlGet); err != nil {
		return fmt.Errorf("prepare Get: %w", err)
	}

	// On a name conflict the existing id is kept and returned.
	const sqlSave = `
		INSERT INTO compositions (id, name, symbol, kind, wire, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
		  symbol = excluded.symbol,
		  kind = excluded.kind,
		  wire = excluded.wire,
		  text = excluded.text,
		  created_at = excluded.created_at
		RETURNING id`
	if s.stmtSave, err = s.db.PrepareContext(ctx, sqlSave); err != nil {
		return fmt.Errorf("prepare Save: %w", err)
	}

	const sqlDelete = "DELETE FROM compositions WHERE name = ?"
	if s.stmtDelete, err = s.db.PrepareContext(ctx, sqlDelete); err != nil {
		return fmt.Errorf("prepare Delete: %w", err)
	}

	const sqlList = "SELECT " + recordColumns + " FROM compositions c ORDER BY c.name"
	if s.stmtList, err = s.db.PrepareContext(ctx, sqlList); err != nil {
		return fmt.Errorf("prepare List: %w", err)
	}

	const sqlFindByLabel = `
		SELECT ` + recordColumns + `
		FROM compositions c
		JOIN composition_labels l ON l.composition_id = c.id
		WHERE l.key = ? AND l.value = ?
		ORDER BY c.name`
	if s.stmtFindByLabel, err = s.db.PrepareContext(ctx, sqlFindByLabel); err != nil {
		return fmt.Errorf("prepare FindByLabel: %w", err)
	}

	const sqlGetLabels = "SELECT key, value FROM composition_labels WHERE composition_id = ?"
	if s.stmtGetLabels, err = s.db.PrepareContext(ctx, sqlGetLabels); err != nil {
		return fmt.Errorf("prepare GetLabels: %w", err)
	}

	const sqlDelLabels = "DELETE FROM composition_labels WHERE composition_id = ?"
	if s.stmtDelLabels, err = s.db.PrepareContext(ctx, sqlDelLabels); err != nil {
		return fmt.Errorf("prepare DeleteLabels: %w", err)
	}

	const sqlInsLabel = "INSERT INTO composition_labels (composition_id, key, value) VALUES (?, ?, ?)"
	if s.stmtInsLabel, err = s.db.PrepareContext(ctx, sqlInsLabel); err != nil {
		return fmt.Errorf("prepare InsertLabel: %w", err)
	}

	return nil
}
