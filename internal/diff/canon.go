// Package diff implements the canonicalisation, redaction and unified-diff
// pipeline described in spec §4.6: deterministic, sanitized diffs between two
// snapshots of the same logical configuration entry.
package diff

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ContentType selects which canonicaliser build_unified_diff applies before
// computing the line-level diff.
type ContentType string

const (
	ContentText ContentType = "text"
	ContentXML  ContentType = "xml"
	ContentJSON ContentType = "json"
)

// CanonicaliseText normalises line endings to "\n", strips trailing
// whitespace on every line, and preserves line order.
func CanonicaliseText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// CanonicaliseXML trims insignificant whitespace between elements, sorts
// attributes by local name, and serialises deterministically. On parse
// error it falls back to text canonicalisation and annotates the result.
func CanonicaliseXML(s string) (canonical string, fellBack bool) {
	root, err := parseXMLElement(s)
	if err != nil {
		return annotateFallback(CanonicaliseText(s), err), true
	}
	var buf bytes.Buffer
	writeXMLElement(&buf, root, 0)
	return buf.String(), false
}

type xmlAttr struct {
	Name  string
	Value string
}

type xmlElement struct {
	Name     string
	Attrs    []xmlAttr
	Text     string
	Children []*xmlElement
}

func parseXMLElement(s string) (*xmlElement, error) {
	dec := xml.NewDecoder(strings.NewReader(s))
	var stack []*xmlElement
	var root *xmlElement
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &xmlElement{Name: t.Name.Local}
			for _, a := range t.Attr {
				el.Attrs = append(el.Attrs, xmlAttr{Name: a.Name.Local, Value: a.Value})
			}
			sort.Slice(el.Attrs, func(i, j int) bool { return el.Attrs[i].Name < el.Attrs[j].Name })
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			} else if root == nil {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				text := strings.TrimSpace(string(t))
				if text != "" {
					top := stack[len(stack)-1]
					if top.Text != "" {
						top.Text += " "
					}
					top.Text += text
				}
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("diff: no root element")
	}
	return root, nil
}

func writeXMLElement(buf *bytes.Buffer, el *xmlElement, depth int) {
	indent := strings.Repeat("  ", depth)
	buf.WriteString(indent)
	buf.WriteString("<")
	buf.WriteString(el.Name)
	for _, a := range el.Attrs {
		fmt.Fprintf(buf, " %s=%q", a.Name, a.Value)
	}
	if len(el.Children) == 0 && el.Text == "" {
		buf.WriteString("/>\n")
		return
	}
	buf.WriteString(">")
	if el.Text != "" && len(el.Children) == 0 {
		buf.WriteString(el.Text)
		fmt.Fprintf(buf, "</%s>\n", el.Name)
		return
	}
	buf.WriteString("\n")
	for _, child := range el.Children {
		writeXMLElement(buf, child, depth+1)
	}
	buf.WriteString(indent)
	fmt.Fprintf(buf, "</%s>\n", el.Name)
}

// CanonicaliseJSON parses and re-emits with sorted keys; on parse error it
// falls back to text canonicalisation and annotates the result.
func CanonicaliseJSON(s string) (canonical string, fellBack bool) {
	var v any
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return annotateFallback(CanonicaliseText(s), err), true
	}
	var buf bytes.Buffer
	writeJSONValue(&buf, v, 0)
	return buf.String(), false
}

func writeJSONValue(buf *bytes.Buffer, v any, depth int) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteString("{\n")
		indent := strings.Repeat("  ", depth+1)
		for i, k := range keys {
			buf.WriteString(indent)
			fmt.Fprintf(buf, "%q: ", k)
			writeJSONValue(buf, val[k], depth+1)
			if i < len(keys)-1 {
				buf.WriteString(",")
			}
			buf.WriteString("\n")
		}
		buf.WriteString(strings.Repeat("  ", depth))
		buf.WriteString("}")
	case []any:
		buf.WriteString("[\n")
		indent := strings.Repeat("  ", depth+1)
		for i, item := range val {
			buf.WriteString(indent)
			writeJSONValue(buf, item, depth+1)
			if i < len(val)-1 {
				buf.WriteString(",")
			}
			buf.WriteString("\n")
		}
		buf.WriteString(strings.Repeat("  ", depth))
		buf.WriteString("]")
	default:
		enc, _ := json.Marshal(val)
		buf.Write(enc)
	}
}

func annotateFallback(text string, cause error) string {
	return fmt.Sprintf("# canonicalisation-fallback: %s\n%s", cause.Error(), text)
}

// Canonicalise dispatches to the canonicaliser named by ct.
func Canonicalise(ct ContentType, s string) (canonical string, fellBack bool) {
	switch ct {
	case ContentXML:
		return CanonicaliseXML(s)
	case ContentJSON:
		return CanonicaliseJSON(s)
	default:
		return CanonicaliseText(s), false
	}
}
