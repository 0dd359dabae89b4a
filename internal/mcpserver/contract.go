package mcpserver

// NoteFormatContract describes the Markdown note format linkgraph reads.
// LLM consumers should follow it when writing notes meant to show up in the
// graph.
const NoteFormatContract = `# linkgraph Note Format

linkgraph builds its graph from Markdown files (` + "`" + `.md` + "`" + `) in the vault.
Hidden directories (` + "`" + `.git` + "`" + `, ` + "`" + `.obsidian` + "`" + `, ...) are ignored.

## Frontmatter

` + "```" + `markdown
---
title: Human-readable title   # optional, defaults to the file name
tags: [project-x, meeting]    # optional, flow or block list
---
` + "```" + `

1. The ` + "`" + `---` + "`" + ` fences must be the first line of the file.
2. ` + "`" + `title` + "`" + ` is the node label and the name other notes reference.
3. Each tag becomes a ` + "`" + `tag:<name>` + "`" + ` node linked to every note carrying it.
   A leading ` + "`" + `#` + "`" + ` is dropped; duplicates are ignored.

## References

- ` + "`" + `[[Target]]` + "`" + ` links to the note whose title (or file name) is Target.
- ` + "`" + `[[Target|Alias]]` + "`" + ` links to Target; the alias is display text only.
- ` + "`" + `==highlight==^[comment]` + "`" + ` annotations are scanned for references inside
  the comment. A trailing ` + "`" + `|YYYY-MM-DD` + "`" + ` date is ignored.
- A reference to a title that matches no note creates no edge.
- A note referencing itself creates no edge.

The first line a target appears on is kept as the backlink context, so put
references in sentences that explain them.

## Example

` + "```" + `markdown
---
title: Weekly standup 2025-01-20
tags: [meeting-notes, project-x]
---

Action items for [[Alice]]: review the [[Design doc|design]].
==ship by Friday==^[agreed with [[Bob]]|2025-01-20]
` + "```" + `
`
