package domain

import "fmt"

// DocumentRepository defines the persistence interface for Document
// entities. Implementations may use SQLite, in-memory storage, or other
// backends.
type DocumentRepository interface {
	// Save persists a document.
	// For new documents (ID == 0), this creates a new record and sets the ID.
	// For existing documents (ID > 0), this updates the existing record.
	Save(doc *Document) error

	// FindByGUID retrieves a document by GUID.
	// Returns DocumentNotFoundError if no matching document exists.
	// Soft-deleted documents are not returned.
	FindByGUID(guid string) (*Document, error)

	// List returns all documents that are not soft-deleted, most recently
	// updated first.
	List() ([]*Document, error)

	// Delete soft-deletes a document by GUID.
	Delete(guid string) error
}

// OpRepository defines the persistence interface for the per-document op
// log.
type OpRepository interface {
	// Append records an op at the next sequence number for its document and
	// sets the op's ID and Seq.
	Append(op *Op) error

	// ListSince returns the ops for a document with Seq greater than
	// afterSeq, in sequence order.
	ListSince(docGUID string, afterSeq int64) ([]*Op, error)

	// LastSeq returns the highest sequence number recorded for a document,
	// zero when the log is empty.
	LastSeq(docGUID string) (int64, error)
}

// DocumentNotFoundError indicates a document lookup failed.
type DocumentNotFoundError struct {
	GUID string
}

func (e *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("document not found: %s", e.GUID)
}
