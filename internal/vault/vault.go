// Package vault adapts a storage.Provider to the document ports used by the
// graph engine: listing and reading notes, appending references and creating
// new notes with YAML frontmatter.
package vault

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/starford/linkgraph/internal/apperr"
	"github.com/starford/linkgraph/internal/storage"
)

// Vault is a Markdown vault on top of a storage provider. Writes are
// serialized so read-modify-write appends do not interleave.
type Vault struct {
	store storage.Provider
	mu    sync.Mutex
}

// New creates a Vault over store.
func New(store storage.Provider) *Vault {
	return &Vault{store: store}
}

// Store returns the underlying provider.
func (v *Vault) Store() storage.Provider { return v.store }

// ListNoteFiles returns the paths of every note, sorted. Notes are not read
// here, so one unreadable file fails only its own ReadText.
func (v *Vault) ListNoteFiles(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	paths, err := v.store.Paths("")
	if err != nil {
		return nil, fmt.Errorf("vault: list: %w", err)
	}
	return paths, nil
}

// ReadText returns the content of the note at p.
func (v *Vault) ReadText(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := v.store.Read(p)
	if err != nil {
		return "", fmt.Errorf("vault: read: %w", err)
	}
	return string(data), nil
}

// AppendReference adds a line "[[referenceTitle]]" at the end of the note at p.
func (v *Vault) AppendReference(ctx context.Context, p, referenceTitle string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	referenceTitle = strings.TrimSpace(referenceTitle)
	if referenceTitle == "" {
		return fmt.Errorf("vault: append reference: empty title: %w", apperr.ErrInvalidInput)
	}
	// The reference must parse back to the same target.
	if strings.ContainsAny(referenceTitle, "|\n\r") || strings.Contains(referenceTitle, "]]") {
		return fmt.Errorf("vault: append reference: title %q: %w", referenceTitle, apperr.ErrInvalidInput)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	data, err := v.store.Read(p)
	if err != nil {
		return fmt.Errorf("vault: append reference: %w", err)
	}
	var buf bytes.Buffer
	buf.Grow(len(data) + len(referenceTitle) + 6)
	buf.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString("[[" + referenceTitle + "]]\n")

	if err := v.store.Write(p, buf.Bytes()); err != nil {
		return fmt.Errorf("vault: append reference: %w", err)
	}
	return nil
}

type frontmatter struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags,omitempty"`
}

// CreateDocument writes a new note named after title inside folder and
// returns its path. An existing file at that path yields apperr.ErrAlreadyExists.
func (v *Vault) CreateDocument(ctx context.Context, folder, title, body string, tags []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	title = strings.TrimSpace(title)
	name := FileName(title)
	if name == "" {
		return "", fmt.Errorf("vault: create: unusable title %q: %w", title, apperr.ErrInvalidInput)
	}
	p := name + ".md"
	if folder = strings.Trim(path.Clean("/"+strings.ReplaceAll(folder, "\\", "/")), "/"); folder != "" {
		p = folder + "/" + p
	}

	fm, err := yaml.Marshal(frontmatter{Title: title, Tags: cleanTags(tags)})
	if err != nil {
		return "", fmt.Errorf("vault: create: encode frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	if body = strings.TrimSpace(body); body != "" {
		buf.WriteString(body)
		buf.WriteByte('\n')
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	exists, err := v.store.Exists(p)
	if err != nil {
		return "", fmt.Errorf("vault: create: %w", err)
	}
	if exists {
		return "", fmt.Errorf("vault: create %s: %w", p, apperr.ErrAlreadyExists)
	}
	if err := v.store.Write(p, buf.Bytes()); err != nil {
		return "", fmt.Errorf("vault: create: %w", err)
	}
	return p, nil
}

// FileName turns a title into a file name stem: characters that are not
// allowed in file names become '-', surrounding dots and spaces are dropped.
func FileName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '#', '^', '[', ']':
			return '-'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, title)
	return strings.Trim(name, " .")
}

func cleanTags(tags []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimPrefix(strings.TrimSpace(t), "#")
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
