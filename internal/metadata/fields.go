package metadata

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Source reads one candidate value from a parsed document. It returns "" when
// the document has nothing to offer.
type Source func(doc *goquery.Document) string

// Field binds an output field to its ordered fallback chain.
type Field struct {
	Name    string
	Sources []Source
	set     func(r *Result, v string)
}

// Fields is evaluated top to bottom; within a field the first non-empty
// source wins.
var Fields = []Field{
	{
		Name:    "title",
		Sources: []Source{MetaProperty("og:title"), TitleText()},
		set:     func(r *Result, v string) { r.Title = v },
	},
	{
		Name:    "description",
		Sources: []Source{MetaProperty("og:description"), MetaName("description")},
		set:     func(r *Result, v string) { r.Description = v },
	},
	{
		Name:    "image",
		Sources: []Source{MetaProperty("og:image")},
		set:     func(r *Result, v string) { r.Image = v },
	},
	{
		Name:    "url",
		Sources: []Source{MetaProperty("og:url")},
		set:     func(r *Result, v string) { r.URL = v },
	},
	{
		Name:    "site_name",
		Sources: []Source{MetaProperty("og:site_name")},
		set:     func(r *Result, v string) { r.SiteName = v },
	},
	{
		Name:    "type",
		Sources: []Source{MetaProperty("og:type")},
		set:     func(r *Result, v string) { r.Type = v },
	},
}

// MetaProperty reads the content of the first <meta property="name">.
func MetaProperty(name string) Source {
	return metaContent(fmt.Sprintf(`meta[property=%q]`, name))
}

// MetaName reads the content of the first <meta name="name">.
func MetaName(name string) Source {
	return metaContent(fmt.Sprintf(`meta[name=%q]`, name))
}

func metaContent(selector string) Source {
	return func(doc *goquery.Document) string {
		content, _ := doc.Find(selector).First().Attr("content")
		return strings.TrimSpace(content)
	}
}

// TitleText reads the text of the first <title> element.
func TitleText() Source {
	return func(doc *goquery.Document) string {
		return strings.TrimSpace(doc.Find("title").First().Text())
	}
}

// Resolve returns the first non-empty value produced by the field's sources.
func (f Field) Resolve(doc *goquery.Document) string {
	for _, src := range f.Sources {
		if v := src(doc); v != "" {
			return v
		}
	}
	return ""
}

// ParseDocument extracts a Result from an HTML body. requestURL backs the url
// field when the page declares no og:url.
func ParseDocument(body io.Reader, requestURL string) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return Result{}, fmt.Errorf("parse html: %w", err)
	}
	return Apply(doc, requestURL), nil
}

// Apply evaluates Fields against an already parsed document.
func Apply(doc *goquery.Document, requestURL string) Result {
	var res Result
	for _, f := range Fields {
		if v := f.Resolve(doc); v != "" {
			f.set(&res, v)
		}
	}
	if res.URL == "" {
		res.URL = requestURL
	}
	return res
}
