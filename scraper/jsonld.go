package scraper

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// JSONLD returns every parseable application/ld+json object on the page.
// Top-level arrays and @graph containers are flattened.
func JSONLD(doc *goquery.Document) []map[string]any {
	var out []map[string]any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		var v any
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			return
		}
		out = appendLD(out, v)
	})
	return out
}

func appendLD(out []map[string]any, v any) []map[string]any {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			out = appendLD(out, item)
		}
	case map[string]any:
		out = append(out, t)
		if graph, ok := t["@graph"].([]any); ok {
			for _, item := range graph {
				out = appendLD(out, item)
			}
		}
	}
	return out
}

// findLD returns the first object whose @type is typ.
func findLD(blocks []map[string]any, typ string) map[string]any {
	for _, b := range blocks {
		switch t := b["@type"].(type) {
		case string:
			if t == typ {
				return b
			}
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok && s == typ {
					return b
				}
			}
		}
	}
	return nil
}

func ldString(obj map[string]any, key string) string {
	if obj == nil {
		return ""
	}
	switch v := obj[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	case map[string]any:
		if s, ok := v["url"].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func ldObject(obj map[string]any, key string) map[string]any {
	if obj == nil {
		return nil
	}
	m, _ := obj[key].(map[string]any)
	return m
}

func ldNumber(obj map[string]any, key string) Number {
	var n Number
	if obj == nil || obj[key] == nil {
		return n
	}
	data, err := json.Marshal(obj[key])
	if err != nil {
		return n
	}
	_ = n.UnmarshalJSON(data)
	return n
}

// lastBreadcrumb is the name of the final BreadcrumbList entry.
func lastBreadcrumb(blocks []map[string]any) string {
	crumbs := findLD(blocks, "BreadcrumbList")
	if crumbs == nil {
		return ""
	}
	items, _ := crumbs["itemListElement"].([]any)
	if len(items) == 0 {
		return ""
	}
	last, _ := items[len(items)-1].(map[string]any)
	if name := ldString(last, "name"); name != "" {
		return name
	}
	return ldString(ldObject(last, "item"), "name")
}

func parseDocument(html []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(html))
}
