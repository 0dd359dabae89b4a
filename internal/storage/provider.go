// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/linkgraph/internal/models"

// Provider is the interface for vault file operations. Paths are relative to
// the vault root and use forward slashes.
type Provider interface {
	// Root returns the absolute vault directory.
	Root() string
	// Paths returns the path of every .md file under dir, sorted, without
	// reading any of them.
	Paths(dir string) ([]string, error)
	// List returns metadata for every readable .md file under dir, sorted by path.
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Exists reports whether a file is present at path.
	Exists(path string) (bool, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
}
