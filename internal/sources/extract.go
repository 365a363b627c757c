package sources

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raphaelgruber/journeys/internal/parser"
	"golang.org/x/net/html"
)

// Page is the readable part of a fetched HTML page.
type Page struct {
	URL         string
	Title       string
	Description string
	Text        string
}

// boilerplate is removed before text extraction.
const boilerplate = "script, style, noscript, nav, header, footer, aside, form, iframe, svg"

// Extract parses HTML and pulls out the title, description and main text.
func Extract(r io.Reader, pageURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	p := &Page{URL: pageURL}
	p.Title = firstNonEmpty(
		metaContent(doc, `meta[property="og:title"]`),
		doc.Find("title").First().Text(),
		doc.Find("h1").First().Text(),
	)
	p.Description = firstNonEmpty(
		metaContent(doc, `meta[name="description"]`),
		metaContent(doc, `meta[property="og:description"]`),
	)

	doc.Find(boilerplate).Remove()
	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Find("main").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body")
	}
	p.Text = textOf(root)
	return p, nil
}

// ExtractMarkdown reads a raw Markdown document, such as a README, into a Page.
func ExtractMarkdown(r io.Reader, pageURL string) (*Page, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	doc := parser.ParseMarkdown(string(data))
	return &Page{
		URL:         pageURL,
		Title:       collapseSpace(doc.Title),
		Description: collapseSpace(doc.Description()),
		Text:        doc.PlainText(),
	}, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = collapseSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// textOf joins every text node under sel with single spaces, so adjacent
// block elements do not run together.
func textOf(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return collapseSpace(b.String())
}
