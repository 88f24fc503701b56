// Package extract pulls named text fields out of HTML documents.
//
// Every lookup is total: a field whose element is missing yields the empty
// string and a list whose container is missing yields an empty slice. Only
// Parse can fail, when the markup cannot be read as a document at all.
package extract

import (
	"fmt"
	"io"
	"sort"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

const classAttr = "class"

// FieldSpec identifies an element by tag name and attribute values.
// The class attribute matches per token, every other attribute matches exactly.
type FieldSpec struct {
	Tag   string            `mapstructure:"tag" json:"tag,omitempty"`
	Attrs map[string]string `mapstructure:"attrs" json:"attrs,omitempty"`
}

// Field is a shorthand constructor for a spec with a single attribute constraint.
func Field(tag, attr, value string) FieldSpec {
	return FieldSpec{Tag: tag, Attrs: map[string]string{attr: value}}
}

// IsZero reports whether the spec has neither a tag nor attribute constraints.
func (s FieldSpec) IsZero() bool {
	return strings.TrimSpace(s.Tag) == "" && len(s.Attrs) == 0
}

// Selector renders the spec as a CSS selector. Attributes are emitted in key order.
func (s FieldSpec) Selector() string {
	if s.IsZero() {
		return ""
	}

	var b strings.Builder
	b.WriteString(strings.ToLower(strings.TrimSpace(s.Tag)))

	keys := make([]string, 0, len(s.Attrs))
	for key := range s.Attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		name := strings.ToLower(strings.TrimSpace(key))
		if name == "" {
			continue
		}

		value := s.Attrs[key]
		if name == classAttr {
			tokens := strings.Fields(value)
			if len(tokens) == 0 {
				b.WriteString(`[class=""]`)
				continue
			}
			for _, token := range tokens {
				fmt.Fprintf(&b, `[class~="%s"]`, quote(token))
			}
			continue
		}

		fmt.Fprintf(&b, `[%s="%s"]`, name, quote(value))
	}

	return b.String()
}

func (s FieldSpec) String() string {
	return s.Selector()
}

func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `"`, `\"`)
}

// Parse reads markup into a queryable document.
func Parse(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Find returns every descendant of root matching spec, in document order.
// A zero spec matches nothing.
func Find(root *goquery.Selection, spec FieldSpec) *goquery.Selection {
	if root == nil {
		return &goquery.Selection{}
	}
	if spec.IsZero() {
		return root.FilterFunction(func(int, *goquery.Selection) bool { return false })
	}
	return root.Find(spec.Selector())
}

// Lookup returns the trimmed text of the first element matching spec and
// whether such an element exists.
func Lookup(root *goquery.Selection, spec FieldSpec) (string, bool) {
	node := Find(root, spec).First()
	if node.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(node.Text()), true
}

// Text returns the trimmed text of the first element matching spec, or the
// empty string when nothing matches.
func Text(root *goquery.Selection, spec FieldSpec) string {
	text, _ := Lookup(root, spec)
	return text
}

// Markdown converts the inner HTML of the first element matching spec to
// Markdown. It falls back to Text when the conversion fails.
func Markdown(root *goquery.Selection, spec FieldSpec) string {
	node := Find(root, spec).First()
	if node.Length() == 0 {
		return ""
	}

	inner, err := node.Html()
	if err != nil {
		return strings.TrimSpace(node.Text())
	}

	md, err := htmltomarkdown.ConvertString(inner)
	if err != nil {
		return strings.TrimSpace(node.Text())
	}

	return strings.TrimSpace(md)
}

// Container returns the first element matching spec. A zero spec selects root itself.
func Container(root *goquery.Selection, spec FieldSpec) (*goquery.Selection, bool) {
	if root == nil {
		return nil, false
	}
	if spec.IsZero() {
		return root, true
	}

	node := Find(root, spec).First()
	if node.Length() == 0 {
		return nil, false
	}
	return node, true
}

// Each calls fn for every element matching item inside the container, in
// document order. Nothing is called when the container is absent.
func Each(root *goquery.Selection, container, item FieldSpec, fn func(i int, block *goquery.Selection)) {
	scope, ok := Container(root, container)
	if !ok {
		return
	}
	Find(scope, item).Each(fn)
}

// All returns the trimmed texts of every element matching item inside the
// container, in document order. Duplicates are kept.
func All(root *goquery.Selection, container, item FieldSpec) []string {
	values := make([]string, 0)
	Each(root, container, item, func(_ int, block *goquery.Selection) {
		values = append(values, strings.TrimSpace(block.Text()))
	})
	return values
}
