package richtext

import "strings"

// Extract concatenates the text of every text child of every paragraph, in
// document order and with no separator. All other node types are skipped.
// A nil or empty document yields "".
func Extract(doc Document) string {
	var sb strings.Builder
	for _, block := range doc {
		p, ok := block.(Paragraph)
		if !ok {
			continue
		}
		for _, child := range p.Children {
			if t, ok := child.(Text); ok {
				sb.WriteString(t.Text)
			}
		}
	}
	return sb.String()
}
