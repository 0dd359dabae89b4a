package engine

import (
	"context"

	"github.com/starford/linkgraph/internal/interaction"
	"github.com/starford/linkgraph/internal/sse"
)

// CorpusSource lists and reads the note files of a vault.
type CorpusSource interface {
	ListNoteFiles(ctx context.Context) ([]string, error)
	ReadText(ctx context.Context, path string) (string, error)
}

// Publisher is the subset of *sse.Broker the engine talks to.
type Publisher interface {
	Publish(event sse.Event)
	PublishFrame(frame any) bool
}

// EventSink forwards engine and controller output to SSE clients. It
// implements interaction.Navigator, interaction.CreationPrompter,
// interaction.PreviewSink and FrameSink.
type EventSink struct {
	pub Publisher
}

var (
	_ interaction.Navigator        = (*EventSink)(nil)
	_ interaction.CreationPrompter = (*EventSink)(nil)
	_ interaction.PreviewSink      = (*EventSink)(nil)
	_ FrameSink                    = (*EventSink)(nil)
)

// NewEventSink creates a sink over pub.
func NewEventSink(pub Publisher) *EventSink {
	return &EventSink{pub: pub}
}

// OpenDocument asks clients to open the document at path.
func (s *EventSink) OpenDocument(path, title string) {
	s.pub.Publish(sse.Event{Type: sse.EventDocumentOpen, Data: map[string]string{
		"path":  path,
		"title": title,
	}})
}

// RequestCreation asks clients to collect details for a new document.
func (s *EventSink) RequestCreation(req interaction.PendingCreation) {
	s.pub.Publish(sse.Event{Type: sse.EventCreateRequested, Data: req})
}

// ShowPreview sends the current preview card.
func (s *EventSink) ShowPreview(p interaction.Preview) {
	s.pub.Publish(sse.Event{Type: sse.EventPreview, Data: p})
}

// PublishFrame forwards a drawn frame.
func (s *EventSink) PublishFrame(frame any) bool {
	return s.pub.PublishFrame(frame)
}
