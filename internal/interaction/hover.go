package interaction

import (
	"log/slog"
	"time"
)

// updateHover hit-tests p and arms the preview deadline when the hovered
// note changes. Leaving a node cancels the pending deadline only; an open
// preview stays until closed explicitly.
func (c *Controller) updateHover(p Point) {
	c.hoverPoint = p
	id := ""
	isNote := false
	if _, n, ok := c.hit(p); ok {
		id, isNote = n.ID, !n.IsTag()
	}
	if id == c.hoverID {
		return
	}
	c.hoverID = id
	c.dirty = true

	if id == "" || !isNote {
		c.disarmHover()
		return
	}
	c.hoverArmedID = id
	c.hoverDeadline = c.clock().Add(c.cfg.HoverDelay)
}

func (c *Controller) disarmHover() {
	c.hoverArmedID = ""
	c.hoverDeadline = time.Time{}
}

// Advance applies finished preview loads and fires the hover deadline when
// it has passed and the same node is still hovered. It reports whether any
// visible state changed.
func (c *Controller) Advance(now time.Time) bool {
	changed := false
drain:
	for {
		select {
		case r := <-c.loads:
			if c.applyLoad(r) {
				changed = true
			}
		default:
			break drain
		}
	}

	if c.hoverArmedID != "" && !now.Before(c.hoverDeadline) {
		id := c.hoverArmedID
		c.disarmHover()
		if id == c.hoverID && c.state == Idle && c.openPreview(id) {
			changed = true
		}
	}
	return changed
}

// openPreview opens the preview for note id in the loading state and starts
// the text load.
func (c *Controller) openPreview(id string) bool {
	n, ok := c.sim.Graph().Node(id)
	if !ok || n.IsTag() {
		return false
	}
	if c.preview != nil && c.preview.NodeID == id {
		return false
	}

	c.seq++
	p := &Preview{
		Seq:    c.seq,
		NodeID: n.ID,
		Path:   n.Path,
		Title:  n.Title,
		Anchor: c.hoverPoint,
		State:  PreviewLoading,
	}
	c.preview = p
	c.publishPreview()

	if c.deps.Reader == nil {
		c.applyLoad(previewResult{seq: p.Seq, err: errNoReader})
		return true
	}
	go c.load(p.Seq, p.Path)
	return true
}

func (c *Controller) load(seq uint64, path string) {
	text, err := c.deps.Reader.ReadText(c.ctx, path)
	select {
	case c.loads <- previewResult{seq: seq, text: text, err: err}:
	case <-c.ctx.Done():
	}
}

// applyLoad stores a load result if it belongs to the open preview.
func (c *Controller) applyLoad(r previewResult) bool {
	if c.preview == nil || c.preview.Seq != r.seq {
		return false
	}
	if r.err != nil {
		c.logger.Debug("interaction: preview load failed",
			slog.String("path", c.preview.Path),
			slog.String("error", r.err.Error()))
		c.preview.State = PreviewFailed
		c.preview.Text = FailedText
	} else {
		c.preview.State = PreviewReady
		c.preview.Text = truncateRunes(r.text, c.cfg.PreviewMaxRunes)
	}
	c.publishPreview()
	c.dirty = true
	return true
}

// ClosePreview hides the open preview and invalidates its pending load.
func (c *Controller) ClosePreview() {
	if c.preview == nil {
		return
	}
	closed := *c.preview
	closed.State = PreviewClosed
	closed.Text = ""
	c.preview = nil
	c.seq++
	c.dirty = true
	if c.deps.Previews != nil {
		c.deps.Previews.ShowPreview(closed)
	}
}

// OpenPreviewDocument navigates to the document shown in the preview.
func (c *Controller) OpenPreviewDocument() bool {
	if c.preview == nil || c.deps.Navigator == nil {
		return false
	}
	c.deps.Navigator.OpenDocument(c.preview.Path, c.preview.Title)
	return true
}

func (c *Controller) publishPreview() {
	if c.deps.Previews != nil && c.preview != nil {
		c.deps.Previews.ShowPreview(*c.preview)
	}
}
