package mcpserver

// NoteFormat describes how Lectern stores notes, for LLM clients that
// read or create them.
const NoteFormat = `# Lectern Note Format

Notes are rich-text documents written in an editor. Tools exchange them as
plain text; one line of text is one paragraph.

## Fields

- **title**: derived from the first line of text. It is never set directly.
- **text**: the plain-text projection of the document, used for search.
- **tags**: ids of tags. Create tags with ` + "`" + `create_tag` + "`" + `; names are unique
  regardless of case.
- **links**: ids of other notes. Links are one-way; the target lists the
  source among its backlinks. A link may point at a deleted note.
- **lecture**: the lecture the note belongs to, if any. Creating a note with
  ` + "`" + `lecture_id` + "`" + ` also appends it to that lecture.
- **created** and **updated**: timestamps set by the server.

## Rules

1. A note with no text is never stored.
2. Use ids from ` + "`" + `list_notes` + "`" + `, ` + "`" + `search_notes` + "`" + ` and ` + "`" + `list_lectures` + "`" + `; titles
   are not unique.
3. Lectures keep their notes in order. ` + "`" + `read_lecture` + "`" + ` returns them in that order.
4. Deleting a note does not remove links to it.

## Example

` + "```" + `text
Closures
A closure captures variables from the enclosing scope.
See also: function values.
` + "```" + `

creates a note titled "Closures" with three paragraphs.
`
