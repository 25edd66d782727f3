package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zdavis/folio/internal/documents/domain"
)

// documentColumns is the list of columns to select for document queries.
const documentColumns = `id, guid, title, body, revision, created_at, updated_at, deleted_at`

// documentRepository implements domain.DocumentRepository using SQLite.
type documentRepository struct {
	db *sql.DB
}

func newDocumentRepository(db *sql.DB) *documentRepository {
	return &documentRepository{db: db}
}

// Ensure documentRepository implements domain.DocumentRepository.
var _ domain.DocumentRepository = (*documentRepository)(nil)

// scanDocument scans a row into a DocumentModel.
func scanDocument(scanner interface{ Scan(...any) error }) (*DocumentModel, error) {
	var model DocumentModel
	err := scanner.Scan(
		&model.ID, &model.GUID, &model.Title, &model.Body, &model.Revision,
		&model.CreatedAt, &model.UpdatedAt, &model.DeletedAt,
	)
	return &model, err
}

// Save persists a document.
// For new documents (ID == 0), inserts a new row and sets the document ID.
// For existing documents (ID > 0), updates the existing row.
func (r *documentRepository) Save(doc *domain.Document) error {
	model := toDocumentModel(doc)

	if doc.ID() == 0 {
		result, err := r.db.Exec(
			`INSERT INTO documents (guid, title, body, revision, created_at, updated_at, deleted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			model.GUID, model.Title, model.Body, model.Revision,
			model.CreatedAt, model.UpdatedAt, model.DeletedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert document: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		doc.SetID(id)
		return nil
	}

	_, err := r.db.Exec(
		`UPDATE documents SET title = ?, body = ?, revision = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?`,
		model.Title, model.Body, model.Revision, model.UpdatedAt, model.DeletedAt,
		model.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

// FindByGUID retrieves a document by its GUID.
// Returns DocumentNotFoundError if no matching document exists.
// Soft-deleted documents are not returned.
func (r *documentRepository) FindByGUID(guid string) (*domain.Document, error) {
	row := r.db.QueryRow(
		`SELECT `+documentColumns+` FROM documents WHERE guid = ? AND deleted_at IS NULL`,
		guid,
	)
	model, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.DocumentNotFoundError{GUID: guid}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find document by guid: %w", err)
	}
	return model.toDomain(), nil
}

// List returns all documents that are not soft-deleted, most recently
// updated first.
func (r *documentRepository) List() ([]*domain.Document, error) {
	rows, err := r.db.Query(
		`SELECT ` + documentColumns + ` FROM documents WHERE deleted_at IS NULL ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		model, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, model.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

// Delete soft-deletes a document by GUID.
func (r *documentRepository) Delete(guid string) error {
	now := time.Now().Unix()
	result, err := r.db.Exec(
		`UPDATE documents SET deleted_at = ?, updated_at = ? WHERE guid = ? AND deleted_at IS NULL`,
		now, now, guid,
	)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return &domain.DocumentNotFoundError{GUID: guid}
	}
	return nil
}
