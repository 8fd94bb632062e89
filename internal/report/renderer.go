// Package report turns a domain.Report into a self-contained HTML document.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/samvad-hq/veille-cyber/internal/domain"
)

// Placeholders shown when a section has no entries.
const (
	NoAlerts   = "Aucune alerte récupérée"
	NoCVEs     = "Aucune CVE récupérée"
	NoArticles = "Aucun article récupéré"
)

const (
	timestampLayout = "02/01/2006 à 15:04:05"
	dateLayout      = "02/01/2006"
	severityPrefix  = "severity-"
	unknownSeverity = "unknown"
)

// Options controls the parts of the document that are not data.
type Options struct {
	// Location the generation timestamp is shown in. Defaults to time.Local.
	Location  *time.Location
	Author    string
	AuthorURL string
}

// DefaultOptions returns the stock footer and local time.
func DefaultOptions() Options {
	return Options{
		Location:  time.Local,
		Author:    "Valérie Ename",
		AuthorURL: "https://github.com/VAL-cyber-pentester",
	}
}

// Renderer builds report documents.
type Renderer struct {
	opts Options
}

// NewRenderer builds a Renderer, filling unset options from DefaultOptions.
func NewRenderer(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.Location == nil {
		opts.Location = def.Location
	}
	if strings.TrimSpace(opts.Author) == "" {
		opts.Author = def.Author
	}
	if strings.TrimSpace(opts.AuthorURL) == "" {
		opts.AuthorURL = def.AuthorURL
	}
	return &Renderer{opts: opts}
}

// Render is a shortcut for rendering the three sections with default options.
func Render(alerts []domain.FeedItem, cves []domain.CveRecord, articles []domain.FeedItem, generatedAt time.Time) (string, error) {
	return NewRenderer(DefaultOptions()).Render(domain.Report{
		GeneratedAt: generatedAt,
		Alerts:      alerts,
		CVEs:        cves,
		Articles:    articles,
	})
}

// Render serializes the report. Output only depends on the report and options.
func (r *Renderer) Render(rep domain.Report) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, r.Document(rep)); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	buf.WriteByte('\n')
	return buf.String(), nil
}

// Document builds the node tree for the report.
func (r *Renderer) Document(rep domain.Report) *html.Node {
	generated := rep.GeneratedAt.In(r.opts.Location)

	head := lines(el(atom.Head),
		el(atom.Meta, "charset", "UTF-8"),
		el(atom.Meta, "name", "viewport", "content", "width=device-width, initial-scale=1.0"),
		textEl(atom.Title, "Veille Cybersécurité - "+generated.Format(dateLayout)),
		with(el(atom.Style), text(stylesheet)),
	)

	body := lines(el(atom.Body),
		textEl(atom.H1, "📊 Rapport de Veille Cybersécurité"),
		textEl(atom.P, "Généré le "+generated.Format(timestampLayout), "class", "date"),
		alertsSection(rep.AlertsSource, rep.Alerts),
		cveSection(rep.CVEs, rep.CVENotice),
		articlesSection(rep.ArticlesSource, rep.Articles),
		r.footer(),
	)

	root := lines(el(atom.Html, "lang", "fr"), head, body)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(text("\n"))
	doc.AppendChild(root)
	return doc
}

func section(id, heading string) *html.Node {
	return lines(el(atom.Div, "class", "section", "id", id), textEl(atom.H2, heading))
}

func placeholder(msg string) *html.Node {
	return textEl(atom.P, msg, "class", "empty")
}

// sectionHeading prefixes a section title with its feed name when known.
func sectionHeading(icon, source, title string) string {
	if source = strings.TrimSpace(source); source != "" {
		return icon + " " + source + " - " + title
	}
	return icon + " " + title
}

func alertsSection(source string, items []domain.FeedItem) *html.Node {
	s := section("alerts", sectionHeading("🔴", source, "Alertes de Sécurité"))
	if len(items) == 0 {
		return lines(s, placeholder(NoAlerts))
	}
	for _, item := range items {
		lines(s, feedEntry("alert-item", item, "Lire l'alerte complète →"))
	}
	return s
}

func articlesSection(source string, items []domain.FeedItem) *html.Node {
	s := section("articles", sectionHeading("📰", source, "Actualités"))
	if len(items) == 0 {
		return lines(s, placeholder(NoArticles))
	}
	for _, item := range items {
		lines(s, feedEntry("article-item", item, "Lire l'article →"))
	}
	return s
}

func cveSection(cves []domain.CveRecord, notice string) *html.Node {
	s := section("cves", "🛡️ CVE Récentes")
	if notice = strings.TrimSpace(notice); notice != "" {
		lines(s, textEl(atom.P, notice, "class", "notice"))
	}
	if len(cves) == 0 {
		return lines(s, placeholder(NoCVEs))
	}
	for _, c := range cves {
		lines(s, cveEntry(c))
	}
	return s
}

func feedEntry(class string, item domain.FeedItem, linkLabel string) *html.Node {
	published := strings.TrimSpace(item.Published)
	if published == "" {
		published = domain.NotAvailable
	}
	link := with(el(atom.A, "href", safeHref(item.Link), "target", "_blank", "rel", "noopener noreferrer"), text(linkLabel))
	return with(el(atom.Div, "class", class),
		textEl(atom.H3, item.Title),
		textEl(atom.P, "Publié le : "+published, "class", "date"),
		with(el(atom.P), link),
	)
}

func cveEntry(c domain.CveRecord) *html.Node {
	badge := textEl(atom.Span, c.Severity, "class", "severity "+SeverityClass(c.Severity))
	return with(el(atom.Div, "class", "cve-item cve-"+SeverityToken(c.Severity)),
		with(el(atom.H3), text(c.ID+" "), badge),
		textEl(atom.P, c.Description),
	)
}

func (r *Renderer) footer() *html.Node {
	return with(el(atom.Div, "class", "footer"),
		textEl(atom.P, "Script d'automatisation de veille cybersécurité"),
		with(el(atom.P),
			text("Développé par "+r.opts.Author+" | "),
			textEl(atom.A, "GitHub", "href", safeHref(r.opts.AuthorURL)),
		),
	)
}

// SeverityToken derives the CSS class suffix for a severity: trimmed,
// lower-cased, inner whitespace joined with "-". A blank severity maps to
// "unknown". Tokens without a style rule simply render unstyled.
func SeverityToken(severity string) string {
	token := strings.ToLower(strings.Join(strings.Fields(severity), "-"))
	if token == "" {
		return unknownSeverity
	}
	return token
}

// SeverityClass is the badge class for a severity.
func SeverityClass(severity string) string {
	return severityPrefix + SeverityToken(severity)
}
