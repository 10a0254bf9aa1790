// Package docs parses tag-annotated doc comments into structured
// documentation and renders it as Markdown (the hover format) or plain text
// (the legacy symbol-table format).
package docs

import (
	"fmt"
	"strings"
)

// Param documents one named parameter.
type Param struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Tag is a custom `@tag content` entry preserved in order.
type Tag struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Documentation is the parsed form of a doc-comment run.
type Documentation struct {
	Summary  string   `json:"summary"`
	Params   []Param  `json:"params,omitempty"`
	Returns  string   `json:"returns,omitempty"`
	Examples []string `json:"examples,omitempty"`
	Throws   []string `json:"throws,omitempty"`
	Custom   []Tag    `json:"custom,omitempty"`
}

// Parse turns cleaned doc-comment lines into structured documentation.
// Lines before any tag accumulate into the summary. A line starting with
// `@tag` opens a tag; following lines without a new `@` prefix append to
// the open tag's content.
func Parse(lines []string) *Documentation {
	doc := &Documentation{}

	// appendTo extends the most recently opened tag.
	var appendTo func(s string)
	var summary []string
	appendTo = func(s string) { summary = append(summary, s) }

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if !strings.HasPrefix(line, "@") {
			if line != "" || len(summary) > 0 {
				appendTo(line)
			}
			continue
		}

		tag, rest, _ := strings.Cut(line[1:], " ")
		rest = strings.TrimSpace(rest)
		switch tag {
		case "param":
			name, desc, _ := strings.Cut(rest, " ")
			doc.Params = append(doc.Params, Param{Name: name, Description: strings.TrimSpace(desc)})
			i := len(doc.Params) - 1
			appendTo = func(s string) {
				doc.Params[i].Description = joinLine(doc.Params[i].Description, s)
			}
		case "return", "returns":
			doc.Returns = rest
			appendTo = func(s string) { doc.Returns = joinLine(doc.Returns, s) }
		case "example":
			doc.Examples = append(doc.Examples, rest)
			i := len(doc.Examples) - 1
			appendTo = func(s string) { doc.Examples[i] = joinLine(doc.Examples[i], s) }
		case "throws":
			doc.Throws = append(doc.Throws, rest)
			i := len(doc.Throws) - 1
			appendTo = func(s string) { doc.Throws[i] = joinLine(doc.Throws[i], s) }
		default:
			doc.Custom = append(doc.Custom, Tag{Name: tag, Content: rest})
			i := len(doc.Custom) - 1
			appendTo = func(s string) { doc.Custom[i].Content = joinLine(doc.Custom[i].Content, s) }
		}
	}

	doc.Summary = strings.TrimSpace(strings.Join(summary, "\n"))
	return doc
}

func joinLine(base, extra string) string {
	extra = strings.TrimSpace(extra)
	if extra == "" {
		return base
	}
	if base == "" {
		return extra
	}
	return base + "\n" + extra
}

// Markdown renders the canonical hover form: bold name header, summary,
// then sectioned tags.
func (d *Documentation) Markdown(name string) string {
	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "**%s**\n\n", name)
	}
	if d.Summary != "" {
		b.WriteString(d.Summary)
		b.WriteString("\n")
	}
	if len(d.Params) > 0 {
		b.WriteString("\n## Parameters\n\n")
		for _, p := range d.Params {
			fmt.Fprintf(&b, "- **%s**: %s\n", p.Name, p.Description)
		}
	}
	if d.Returns != "" {
		b.WriteString("\n## Returns\n\n")
		b.WriteString(d.Returns)
		b.WriteString("\n")
	}
	if len(d.Examples) > 0 {
		b.WriteString("\n## Examples\n\n")
		for _, e := range d.Examples {
			fmt.Fprintf(&b, "```rholang\n%s\n```\n", e)
		}
	}
	if len(d.Throws) > 0 {
		b.WriteString("\n## Throws\n\n")
		for _, t := range d.Throws {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}
	for _, tag := range d.Custom {
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", strings.Title(tag.Name), tag.Content)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// PlainText renders a single-string legacy form: summary followed by tag
// lines.
func (d *Documentation) PlainText() string {
	var parts []string
	if d.Summary != "" {
		parts = append(parts, d.Summary)
	}
	for _, p := range d.Params {
		parts = append(parts, fmt.Sprintf("%s: %s", p.Name, p.Description))
	}
	if d.Returns != "" {
		parts = append(parts, "returns: "+d.Returns)
	}
	for _, t := range d.Throws {
		parts = append(parts, "throws: "+t)
	}
	return strings.Join(parts, "\n")
}

// Empty reports whether nothing was parsed.
func (d *Documentation) Empty() bool {
	return d.Summary == "" && len(d.Params) == 0 && d.Returns == "" &&
		len(d.Examples) == 0 && len(d.Throws) == 0 && len(d.Custom) == 0
}
