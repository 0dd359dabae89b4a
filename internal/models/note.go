// Package models defines the domain types shared by the graph engine packages.
package models

import "time"

// Document is one parsed note file. It is immutable once built; a rescan
// replaces the whole set rather than patching documents in place.
type Document struct {
	Path       string      `json:"path"`
	Title      string      `json:"title"`
	Tags       []string    `json:"tags"`
	References []Reference `json:"references"`
}

// Reference is an outgoing link name together with the line it was first seen on.
type Reference struct {
	Target  string `json:"target"`
	Context string `json:"context"`
}

// ReferenceTo returns the first reference whose target matches one of names.
func (d *Document) ReferenceTo(names ...string) (Reference, bool) {
	for _, r := range d.References {
		for _, n := range names {
			if n != "" && r.Target == n {
				return r, true
			}
		}
	}
	return Reference{}, false
}

// Backlink is a derived reverse reference: SourcePath mentions the queried note.
type Backlink struct {
	SourcePath  string `json:"source_path"`
	SourceTitle string `json:"source_title"`
	Context     string `json:"context"`
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
