package interaction

import "context"

// TextReader loads the raw text of a document for previews.
type TextReader interface {
	ReadText(ctx context.Context, path string) (string, error)
}

// Navigator opens a document in the host application.
type Navigator interface {
	OpenDocument(path, title string)
}

// ReferenceAppender adds a reference line to the end of a document.
type ReferenceAppender interface {
	AppendReference(ctx context.Context, path, referenceTitle string) error
}

// DocumentCreator writes a new document and returns its path.
type DocumentCreator interface {
	CreateDocument(ctx context.Context, folder, title, body string, tags []string) (string, error)
}

// CreationPrompter asks the host to collect details for a new document.
type CreationPrompter interface {
	RequestCreation(req PendingCreation)
}

// PreviewSink is told every time the open preview changes.
type PreviewSink interface {
	ShowPreview(p Preview)
}

// Deps are the collaborators of a Controller. Nil members disable the
// matching behavior.
type Deps struct {
	Reader    TextReader
	Navigator Navigator
	Appender  ReferenceAppender
	Creator   DocumentCreator
	Prompter  CreationPrompter
	Previews  PreviewSink
}
