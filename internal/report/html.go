package report

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/pkbridge/erlab/internal/output"
)

//go:embed templates/*.tmpl templates/style.css
var assets embed.FS

// Section is one block of a chapter page: prose, tables, and at most one
// figure.
type Section struct {
	Heading    string
	Paragraphs []string
	Tables     []output.Table
	Figure     string // path relative to the book directory
	Caption    string
}

// Page is one chapter of the rendered book.
type Page struct {
	Slug     string // file name without extension
	Title    string
	Intro    string
	Sections []Section
}

type book struct {
	Title string
	Pages []Page
}

type pageData struct {
	Book book
	Page Page
}

// RenderBook writes a static HTML site into dir: an index page, one page
// per chapter, and the stylesheet. Figures must already exist under dir.
func RenderBook(dir, title string, pages []Page) error {
	if len(pages) == 0 {
		return fmt.Errorf("report: no pages to render")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	tmpl, err := template.ParseFS(assets, "templates/*.tmpl")
	if err != nil {
		return fmt.Errorf("report: parse templates: %w", err)
	}

	b := book{Title: title, Pages: pages}
	if err := renderFile(tmpl, "index.tmpl", filepath.Join(dir, "index.html"), b); err != nil {
		return err
	}
	for _, p := range pages {
		target := filepath.Join(dir, p.Slug+".html")
		if err := renderFile(tmpl, "page.tmpl", target, pageData{Book: b, Page: p}); err != nil {
			return err
		}
	}

	css, err := assets.ReadFile("templates/style.css")
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "style.css"), css, 0o644); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

func renderFile(tmpl *template.Template, name, path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	defer f.Close()
	if err := tmpl.ExecuteTemplate(f, name, data); err != nil {
		return fmt.Errorf("report: render %s: %w", path, err)
	}
	return f.Close()
}
