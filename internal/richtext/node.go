// Package richtext models the structured body documents served by the CMS
// and flattens them into a single markup string.
//
// Documents arrive as untyped JSON. Decoding never fails: node types the
// package does not recognise become Unknown* variants and anything that is
// not the expected shape decodes to an empty value.
package richtext

import (
	"encoding/json"
	"strconv"
)

// Node type discriminators understood by the extractor.
const (
	TypeParagraph = "paragraph"
	TypeText      = "text"
)

// Block is a top-level node of a Document.
type Block interface {
	BlockType() string
}

// Inline is a child node of a Paragraph.
type Inline interface {
	InlineType() string
}

// Paragraph is a block holding inline children.
type Paragraph struct {
	Children []Inline
}

func (Paragraph) BlockType() string { return TypeParagraph }

// UnknownBlock is any block whose type is not understood (headings, lists, quotes...).
type UnknownBlock struct {
	Type string
	Raw  json.RawMessage
}

func (b UnknownBlock) BlockType() string { return b.Type }

// Text is an inline run of plain text.
type Text struct {
	Text string
}

func (Text) InlineType() string { return TypeText }

// UnknownInline is any inline node whose type is not understood (links, mentions...).
type UnknownInline struct {
	Type string
	Raw  json.RawMessage
}

func (n UnknownInline) InlineType() string { return n.Type }

// Document is an ordered sequence of blocks.
type Document []Block

// rawNode is the loose shape shared by block and inline nodes.
type rawNode struct {
	Type     json.RawMessage `json:"type"`
	Text     json.RawMessage `json:"text"`
	Children json.RawMessage `json:"children"`
}

// UnmarshalJSON decodes a document without ever returning an error.
// Non-array input yields an empty document.
func (d *Document) UnmarshalJSON(data []byte) error {
	*d = decodeBlocks(data)
	return nil
}

// MarshalJSON encodes the recognised variants back to the CMS shape.
// Unknown nodes are re-emitted verbatim.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(d))
	for _, b := range d {
		raw, err := marshalBlock(b)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return json.Marshal(out)
}

// Parse decodes raw JSON into a Document. It is total: malformed input gives an empty document.
func Parse(data []byte) Document {
	return decodeBlocks(data)
}

func decodeBlocks(data []byte) Document {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return Document{}
	}
	doc := make(Document, 0, len(items))
	for _, item := range items {
		doc = append(doc, decodeBlock(item))
	}
	return doc
}

func decodeBlock(item json.RawMessage) Block {
	var n rawNode
	if err := json.Unmarshal(item, &n); err != nil {
		return UnknownBlock{Raw: item}
	}
	typ := stringOrEmpty(n.Type)
	if typ != TypeParagraph {
		return UnknownBlock{Type: typ, Raw: item}
	}
	return Paragraph{Children: decodeInlines(n.Children)}
}

func decodeInlines(data json.RawMessage) []Inline {
	var items []json.RawMessage
	if len(data) == 0 || json.Unmarshal(data, &items) != nil {
		return nil
	}
	out := make([]Inline, 0, len(items))
	for _, item := range items {
		var n rawNode
		if err := json.Unmarshal(item, &n); err != nil {
			out = append(out, UnknownInline{Raw: item})
			continue
		}
		typ := stringOrEmpty(n.Type)
		if typ != TypeText {
			out = append(out, UnknownInline{Type: typ, Raw: item})
			continue
		}
		out = append(out, Text{Text: scalarText(n.Text)})
	}
	return out
}

// stringOrEmpty returns the JSON string value of raw, or "" for any other value.
func stringOrEmpty(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// scalarText renders a text payload loosely:
// strings as-is, non-zero numbers and true in their literal form. Zero,
// false, null and composite values contribute nothing.
func scalarText(raw json.RawMessage) string {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
	}
	return ""
}

func marshalBlock(b Block) (json.RawMessage, error) {
	switch v := b.(type) {
	case Paragraph:
		children := make([]json.RawMessage, 0, len(v.Children))
		for _, c := range v.Children {
			raw, err := marshalInline(c)
			if err != nil {
				return nil, err
			}
			children = append(children, raw)
		}
		return json.Marshal(map[string]any{"type": TypeParagraph, "children": children})
	case UnknownBlock:
		if len(v.Raw) > 0 {
			return v.Raw, nil
		}
		return json.Marshal(map[string]any{"type": v.Type})
	default:
		return json.Marshal(map[string]any{"type": b.BlockType()})
	}
}

func marshalInline(n Inline) (json.RawMessage, error) {
	switch v := n.(type) {
	case Text:
		return json.Marshal(map[string]any{"type": TypeText, "text": v.Text})
	case UnknownInline:
		if len(v.Raw) > 0 {
			return v.Raw, nil
		}
		return json.Marshal(map[string]any{"type": v.Type})
	default:
		return json.Marshal(map[string]any{"type": n.InlineType()})
	}
}
