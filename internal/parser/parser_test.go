package parser

import (
	"testing"
)

func TestParse_FrontmatterTitleAndTags(t *testing.T) {
	input := "---\ntitle: Hello\ntags: [go, \"notes\", '', go]\n---\n# Hello\nBody text.\n"
	d := Parse("notes/hello-file.md", input)
	if d.Title != "Hello" {
		t.Errorf("title = %q, want %q", d.Title, "Hello")
	}
	if len(d.Tags) != 2 || d.Tags[0] != "go" || d.Tags[1] != "notes" {
		t.Errorf("tags = %v, want [go notes]", d.Tags)
	}
	if d.Path != "notes/hello-file.md" {
		t.Errorf("path = %q", d.Path)
	}
}

func TestParse_BlockListTags(t *testing.T) {
	d := Parse("a.md", "---\ntags:\n  - alpha\n  - beta\n---\nbody\n")
	if len(d.Tags) != 2 || d.Tags[0] != "alpha" || d.Tags[1] != "beta" {
		t.Errorf("tags = %v, want [alpha beta]", d.Tags)
	}
}

func TestParse_ScalarTagsKeepText(t *testing.T) {
	d := Parse("n.md", "---\ntitle: N\ntags: [2024, project, true, [nested], ~]\n---\nbody\n")
	want := []string{"2024", "project", "true"}
	if len(d.Tags) != len(want) {
		t.Fatalf("tags = %v, want %v", d.Tags, want)
	}
	for i, tag := range want {
		if d.Tags[i] != tag {
			t.Errorf("tags[%d] = %q, want %q", i, d.Tags[i], tag)
		}
	}
}

func TestParse_NoFrontmatterUsesFilename(t *testing.T) {
	d := Parse("dir/Some Note.md", "# Heading\nSee [[Other]].\n")
	if d.Title != "Some Note" {
		t.Errorf("title = %q, want %q", d.Title, "Some Note")
	}
	if len(d.Tags) != 0 {
		t.Errorf("tags = %v, want none", d.Tags)
	}
	if len(d.References) != 1 || d.References[0].Target != "Other" {
		t.Errorf("references = %+v", d.References)
	}
}

func TestParse_InvalidYAMLFallsBackToLineScan(t *testing.T) {
	input := "---\ntitle: Broken: yes: {{\ntags: [x, 'y']\n: nonsense\n---\nBody\n"
	d := Parse("broken.md", input)
	if d.Title != "Broken: yes: {{" {
		t.Errorf("title = %q", d.Title)
	}
	if len(d.Tags) != 2 || d.Tags[0] != "x" || d.Tags[1] != "y" {
		t.Errorf("tags = %v, want [x y]", d.Tags)
	}
}

func TestParse_MalformedTagsNotMatched(t *testing.T) {
	input := "---\ntitle: {unclosed\ntags: [a, b\n---\nBody\n"
	d := Parse("file.md", input)
	if d.Title != "{unclosed" {
		t.Errorf("title = %q", d.Title)
	}
	if len(d.Tags) != 0 {
		t.Errorf("tags = %v, want none", d.Tags)
	}
}

func TestParse_UnclosedFrontmatterIsBody(t *testing.T) {
	d := Parse("open.md", "---\ntitle: Never closed\n[[Link]]\n")
	if d.Title != "open" {
		t.Errorf("title = %q, want filename", d.Title)
	}
	if len(d.References) != 1 {
		t.Errorf("references = %+v", d.References)
	}
}

func TestExtractReferences_PlainAndAlias(t *testing.T) {
	body := "See [[Note A]] and [[Note B|alias]].\nAlso [[Note A]] again."
	refs := extractReferences(body)
	if len(refs) != 2 {
		t.Fatalf("len(refs) = %d, want 2", len(refs))
	}
	if refs[0].Target != "Note A" || refs[1].Target != "Note B" {
		t.Errorf("refs = %+v", refs)
	}
	if refs[0].Context != "See [[Note A]] and [[Note B|alias]]." {
		t.Errorf("context = %q, want first line", refs[0].Context)
	}
}

func TestExtractReferences_EmptyTarget(t *testing.T) {
	refs := extractReferences("see [[ ]] and [[|alias]]")
	if len(refs) != 0 {
		t.Errorf("expected no references, got %+v", refs)
	}
}

func TestExtractReferences_AnnotatedWithDateSuffix(t *testing.T) {
	body := "Intro ==key idea==^[relates to [[Physics|phys]]|2024-03-01] and [[Chemistry]]"
	refs := extractReferences(body)
	if len(refs) != 2 {
		t.Fatalf("refs = %+v, want 2", refs)
	}
	// Annotated references are captured before plain ones on the same line.
	if refs[0].Target != "Physics" || refs[1].Target != "Chemistry" {
		t.Errorf("refs = %+v", refs)
	}
}

func TestExtractReferences_AnnotatedNotDoubleCounted(t *testing.T) {
	body := "==span==^[[[Target]]]"
	refs := extractReferences(body)
	if len(refs) != 1 || refs[0].Target != "Target" {
		t.Errorf("refs = %+v, want one Target", refs)
	}
}

func TestExtractReferences_NonDatePipeScannedAsIs(t *testing.T) {
	body := "==x==^[see [[Alpha]]|not a date]"
	refs := extractReferences(body)
	if len(refs) != 1 || refs[0].Target != "Alpha" {
		t.Errorf("refs = %+v, want Alpha", refs)
	}
}

func TestExtractReferences_FirstContextWins(t *testing.T) {
	body := "first [[X]]\nsecond [[X]] and [[Y]]"
	refs := extractReferences(body)
	if len(refs) != 2 {
		t.Fatalf("refs = %+v", refs)
	}
	if refs[0].Context != "first [[X]]" {
		t.Errorf("X context = %q", refs[0].Context)
	}
	if refs[1].Context != "second [[X]] and [[Y]]" {
		t.Errorf("Y context = %q", refs[1].Context)
	}
}

func TestFileStem(t *testing.T) {
	cases := map[string]string{
		"a/b/Note.md": "Note",
		"Note.md":     "Note",
		"x.y.md":      "x.y",
		"dir/noext":   "noext",
		`win\path.md`: `win\path`,
	}
	for in, want := range cases {
		if got := FileStem(in); got != want {
			t.Errorf("FileStem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBody(t *testing.T) {
	raw := "---\ntitle: T\n---\nline one\n[[X]]\n"
	if got := Body(raw); got != "line one\n[[X]]\n" {
		t.Errorf("Body = %q", got)
	}
	if got := Body("no frontmatter"); got != "no frontmatter" {
		t.Errorf("Body = %q", got)
	}
}
