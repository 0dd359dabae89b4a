package interaction

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// PreviewState is the lifecycle of an open preview.
type PreviewState string

// Preview states.
const (
	PreviewLoading PreviewState = "loading"
	PreviewReady   PreviewState = "ready"
	PreviewFailed  PreviewState = "failed"
	PreviewClosed  PreviewState = "closed"
)

// FailedText is shown in place of content that could not be loaded.
const FailedText = "failed to load"

// Preview is the hover card for one note. Anchor is the screen point of the
// last hover move before the card opened; clients place the card next to it.
type Preview struct {
	Seq    uint64       `json:"seq"`
	NodeID string       `json:"node_id"`
	Path   string       `json:"path"`
	Title  string       `json:"title"`
	Anchor Point        `json:"anchor"`
	State  PreviewState `json:"state"`
	Text   string       `json:"text"`
}

var errNoReader = errors.New("no text reader configured")

type previewResult struct {
	seq  uint64
	text string
	err  error
}

// truncateRunes cuts s to at most n runes, appending an ellipsis when
// anything was dropped.
func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	cut := 0
	for i := range s {
		if n == 0 {
			cut = i
			break
		}
		n--
	}
	return strings.TrimRightFunc(s[:cut], func(r rune) bool { return r == ' ' || r == '\n' || r == '\t' }) + "…"
}
