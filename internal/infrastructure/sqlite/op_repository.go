package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/zdavis/folio/internal/documents/domain"
)

const opColumns = `id, document_guid, seq, kind, char_offset, char_length, body, site, created_at`

// opRepository implements domain.OpRepository using SQLite.
type opRepository struct {
	db *sql.DB
}

func newOpRepository(db *sql.DB) *opRepository {
	return &opRepository{db: db}
}

// Ensure opRepository implements domain.OpRepository.
var _ domain.OpRepository = (*opRepository)(nil)

func scanOp(scanner interface{ Scan(...any) error }) (*OpModel, error) {
	var model OpModel
	err := scanner.Scan(
		&model.ID, &model.DocumentGUID, &model.Seq, &model.Kind,
		&model.CharOffset, &model.CharLength, &model.Body, &model.Site,
		&model.CreatedAt,
	)
	return &model, err
}

// Append records an op at the next sequence number for its document. The
// sequence read and the insert run in one transaction so concurrent writers
// from different processes cannot claim the same slot.
func (r *opRepository) Append(op *domain.Op) error {
	if !op.Kind.IsValid() {
		return fmt.Errorf("invalid op kind: %q", op.Kind)
	}
	model := toOpModel(op)

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRow(
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM ops WHERE document_guid = ?`,
		model.DocumentGUID,
	).Scan(&seq)
	if err != nil {
		return fmt.Errorf("failed to allocate op sequence: %w", err)
	}

	result, err := tx.Exec(
		`INSERT INTO ops (document_guid, seq, kind, char_offset, char_length, body, site, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		model.DocumentGUID, seq, model.Kind, model.CharOffset, model.CharLength,
		model.Body, model.Site, model.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert op: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit op: %w", err)
	}

	op.ID = id
	op.Seq = seq
	return nil
}

// ListSince returns the ops for a document with Seq greater than afterSeq,
// in sequence order.
func (r *opRepository) ListSince(docGUID string, afterSeq int64) ([]*domain.Op, error) {
	rows, err := r.db.Query(
		`SELECT `+opColumns+` FROM ops WHERE document_guid = ? AND seq > ? ORDER BY seq ASC`,
		docGUID, afterSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ops: %w", err)
	}
	defer rows.Close()

	var ops []*domain.Op
	for rows.Next() {
		model, err := scanOp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan op: %w", err)
		}
		ops = append(ops, model.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ops: %w", err)
	}
	return ops, nil
}

// LastSeq returns the highest sequence number recorded for a document, zero
// when the log is empty.
func (r *opRepository) LastSeq(docGUID string) (int64, error) {
	var seq sql.NullInt64
	err := r.db.QueryRow(
		`SELECT MAX(seq) FROM ops WHERE document_guid = ?`,
		docGUID,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to read last op sequence: %w", err)
	}
	return seq.Int64, nil
}
