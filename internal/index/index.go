package index

import "github.com/starford/linkgraph/internal/models"

// DocumentIndex is the read/write surface of the document index.
// Consumers depend on it rather than on *DB.
type DocumentIndex interface {
	UpsertDocument(doc *models.Document, checksum, body string) error
	DeleteDocument(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	Count() (int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Backlinks(names ...string) ([]models.Backlink, error)
	Close() error
}

var _ DocumentIndex = (*DB)(nil)
