package api

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mkarpov/news-comb/app/cfg"
	"github.com/mkarpov/news-comb/app/news"
)

type Generator struct {
	titleCaser cases.Caser
}

func NewGenerator() *Generator {
	return &Generator{
		titleCaser: cases.Title(language.English),
	}
}

func (g *Generator) Run(articles []news.Article, title string) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", title, 4)

	var selfLink string
	if cfg.Get().BaseUrl != "" {
		selfLink = fmt.Sprintf("%s/news/rss", cfg.Get().BaseUrl)
	} else {
		selfLink = fmt.Sprintf("http://localhost:%s/news/rss", cfg.Get().Port)
	}
	g.writeElement(&buf, "link", selfLink, 4)
	g.writeElement(&buf, "description", "Aggregated news headlines", 4)
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(selfLink)))

	lastBuildDate := time.Now().In(time.Local)
	if len(articles) > 0 {
		if publishedAt := news.ParsePublishedAt(articles[0].PublishedAt); !publishedAt.IsZero() {
			lastBuildDate = publishedAt
		}
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("News-Comb/%s", cfg.Get().Version), 4)
	g.writeElement(&buf, "language", "en", 4)

	for _, article := range articles {
		g.writeItem(&buf, article)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, article news.Article) {
	buf.WriteString("    <item>\n")

	if article.ID != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(article.ID)))
		xml.EscapeText(buf, []byte(article.ID))
		buf.WriteString("</guid>\n")
	}

	if article.Title != "" {
		g.writeElement(buf, "title", article.Title, 6)
	}

	if article.URL != "" {
		g.writeElement(buf, "link", article.URL, 6)
	}

	description := article.Description
	if description == "" {
		description = "No description available"
	}
	g.writeElement(buf, "description", description, 6)

	if publishedAt := news.ParsePublishedAt(article.PublishedAt); !publishedAt.IsZero() {
		g.writeElement(buf, "pubDate", publishedAt.Format(time.RFC1123Z), 6)
	}

	if article.Author != "" {
		g.writeElement(buf, "author", article.Author, 6)
	}

	if article.Category != "" {
		g.writeElement(buf, "category", g.titleCaser.String(article.Category), 6)
	}

	if article.Source != "" {
		g.writeElement(buf, "category", article.Source, 6)
	}

	// RSS 2.0 enclosures require url, length, and type; the length is unknown here
	if article.ImageURL != "" && article.ImageURL != news.PlaceholderImageURL {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"image/jpeg\" />\n",
			html.EscapeString(article.ImageURL)))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return (len(s) > 7 && s[:7] == "http://") || (len(s) > 8 && s[:8] == "https://")
}
