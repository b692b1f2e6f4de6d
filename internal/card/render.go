package card

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
)

// DefaultShareURL is the placeholder link written when none is given.
const DefaultShareURL = "https://your-book-url.com"

// Marker precedes every rendered card.
const Marker = "<!-- 技术文章总结卡片 -->"

//go:embed card.html.tmpl
var cardTemplate string

var tmpl = template.Must(template.New("card").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(cardTemplate))

// Palette is the card colour scheme.
type Palette struct {
	Primary    template.CSS
	Secondary  template.CSS
	Accent     template.CSS
	Background template.CSS
	Shadow     template.CSS
}

// DefaultPalette is the blue and purple scheme.
var DefaultPalette = Palette{
	Primary:    "#2563EB",
	Secondary:  "#7C3AED",
	Accent:     "#10B981",
	Background: "linear-gradient(135deg, #F0F9FF 0%, #FFFFFF 50%, #F5F3FF 100%)",
	Shadow:     "0 8px 30px rgba(37, 99, 235, 0.12)",
}

type cardData struct {
	Summary
	Date       string
	CopyButton template.HTML
	Colors     Palette
}

// ValidateShareURL rejects links that cannot be embedded in the copy button.
func ValidateShareURL(link string) error {
	if link == "" {
		return errors.New("share url is empty")
	}
	if strings.ContainsAny(link, "'\"\\<>\n\r") {
		return fmt.Errorf("share url %q contains quotes, brackets or line breaks", link)
	}
	u, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("parse share url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("share url must be http or https, got %q", link)
	}
	return nil
}

func copyButton(link string) template.HTML {
	return template.HTML(fmt.Sprintf(
		`<button class="action-btn action-btn-primary" onclick="copyArticleLink('%s')">`,
		template.HTMLEscapeString(link)))
}

// Render produces the card HTML, including the leading marker comment.
func Render(s Summary, shareURL string, now time.Time) (string, error) {
	if shareURL == "" {
		shareURL = DefaultShareURL
	}
	if err := ValidateShareURL(shareURL); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString(Marker + "\n")
	err := tmpl.Execute(&buf, cardData{
		Summary:    s,
		Date:       now.Format("2006年01月02日"),
		CopyButton: copyButton(shareURL),
		Colors:     DefaultPalette,
	})
	if err != nil {
		return "", fmt.Errorf("render card: %w", err)
	}
	return buf.String(), nil
}
