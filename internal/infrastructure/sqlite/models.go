package sqlite

import (
	"time"

	"github.com/zdavis/folio/internal/documents/domain"
)

// DocumentModel represents the database row for the documents table.
// Fields map directly to SQL columns with Unix timestamps for time values.
type DocumentModel struct {
	ID        int64
	GUID      string
	Title     string
	Body      string
	Revision  int64
	CreatedAt int64  // Unix timestamp
	UpdatedAt int64  // Unix timestamp
	DeletedAt *int64 // Unix timestamp, nullable
}

// toDocumentModel converts a domain Document entity to a database model.
func toDocumentModel(d *domain.Document) *DocumentModel {
	m := &DocumentModel{
		ID:        d.ID(),
		GUID:      d.GUID(),
		Title:     d.Title(),
		Body:      d.Body(),
		Revision:  d.Revision(),
		CreatedAt: d.CreatedAt().Unix(),
		UpdatedAt: d.UpdatedAt().Unix(),
	}
	if at := d.DeletedAt(); at != nil {
		ts := at.Unix()
		m.DeletedAt = &ts
	}
	return m
}

// toDomain converts a database model back to a domain Document entity.
func (m *DocumentModel) toDomain() *domain.Document {
	var deletedAt *time.Time
	if m.DeletedAt != nil {
		at := time.Unix(*m.DeletedAt, 0)
		deletedAt = &at
	}
	return domain.Rehydrate(
		m.ID, m.GUID, m.Title, m.Body, m.Revision,
		time.Unix(m.CreatedAt, 0), time.Unix(m.UpdatedAt, 0), deletedAt,
	)
}

// OpModel represents the database row for the ops table.
type OpModel struct {
	ID           int64
	DocumentGUID string
	Seq          int64
	Kind         string
	CharOffset   int
	CharLength   int
	Body         string
	Site         string
	CreatedAt    int64 // Unix timestamp
}

func toOpModel(op *domain.Op) *OpModel {
	return &OpModel{
		ID:           op.ID,
		DocumentGUID: op.DocumentGUID,
		Seq:          op.Seq,
		Kind:         string(op.Kind),
		CharOffset:   op.Offset,
		CharLength:   op.Length,
		Body:         op.Body,
		Site:         op.Site,
		CreatedAt:    op.CreatedAt.Unix(),
	}
}

func (m *OpModel) toDomain() *domain.Op {
	return &domain.Op{
		ID:           m.ID,
		DocumentGUID: m.DocumentGUID,
		Seq:          m.Seq,
		Kind:         domain.OpKind(m.Kind),
		Offset:       m.CharOffset,
		Length:       m.CharLength,
		Body:         m.Body,
		Site:         m.Site,
		CreatedAt:    time.Unix(m.CreatedAt, 0),
	}
}
