package steamgifts

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// Giveaway is one enterable listing parsed from a section page.
type Giveaway struct {
	Code    string
	Name    string
	Cost    int
	SteamID string
}

// Page is the narrow view of a fetched site page the session needs. It keeps
// the session logic independent of the markup library behind it.
type Page interface {
	CSRFToken() (string, error)
	Points() (int, error)
	NoResults() bool
	Giveaways() ([]Giveaway, error)
}

// ParseFunc turns a raw response body into a Page.
type ParseFunc func(io.Reader) (Page, error)

// ParseError reports a markup field that could not be located or decoded.
type ParseError struct {
	Field string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("markup field %q not found", e.Field)
}

// ParseHTML is the default ParseFunc, backed by goquery.
func ParseHTML(r io.Reader) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &htmlPage{doc: doc}, nil
}

type htmlPage struct {
	doc *goquery.Document
}

func (p *htmlPage) CSRFToken() (string, error) {
	v, ok := p.doc.Find(`input[name="xsrf_token"]`).First().Attr("value")
	if !ok || v == "" {
		return "", &ParseError{Field: "xsrf_token"}
	}
	return v, nil
}

func (p *htmlPage) Points() (int, error) {
	text := strings.TrimSpace(p.doc.Find("span.nav__points").First().Text())
	if text == "" {
		return 0, &ParseError{Field: "nav__points"}
	}
	points, err := strconv.Atoi(strings.ReplaceAll(text, ",", ""))
	if err != nil {
		return 0, &ParseError{Field: "nav__points"}
	}
	return points, nil
}

func (p *htmlPage) NoResults() bool {
	return p.doc.Find(".pagination--no-results").Length() > 0
}

// Giveaways collects the eligible rows of a listing page. Rows faded out by
// the site (already entered or otherwise unavailable) are skipped.
func (p *htmlPage) Giveaways() ([]Giveaway, error) {
	var giveaways []Giveaway
	var rowErr error
	p.doc.Find("div.giveaway__row-inner-wrap").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if row.HasClass("is-faded") {
			return true
		}
		g, err := giveawayFromRow(row)
		if err != nil {
			rowErr = err
			return false
		}
		giveaways = append(giveaways, g)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return giveaways, nil
}

func giveawayFromRow(row *goquery.Selection) (Giveaway, error) {
	var g Giveaway

	heading := row.Find("a.giveaway__heading__name").First()
	if heading.Length() == 0 {
		return g, &ParseError{Field: "giveaway__heading__name"}
	}
	g.Name = heading.Text()

	// href looks like /giveaway/<code>/<slug>
	href, _ := heading.Attr("href")
	parts := strings.Split(href, "/")
	if len(parts) < 3 || parts[2] == "" {
		return g, &ParseError{Field: "giveaway code"}
	}
	g.Code = parts[2]

	costText := strings.TrimSpace(row.Find("span.giveaway__heading__thin").Last().Text())
	cost, err := strconv.Atoi(strings.Trim(costText, "(P)"))
	if err != nil {
		return g, &ParseError{Field: "giveaway cost"}
	}
	g.Cost = cost

	if storeHref, ok := row.Find(`a[target="_blank"]`).First().Attr("href"); ok {
		g.SteamID = steamIDFromURL(storeHref)
		if g.SteamID == "" {
			log.Warn().Str("name", g.Name).Str("code", g.Code).Str("href", storeHref).
				Msg("could not parse steam id")
		}
	}

	return g, nil
}

// steamIDFromURL extracts the numeric app id from a store link, e.g.
// https://store.steampowered.com/app/12345/?curator=1 -> 12345.
func steamIDFromURL(href string) string {
	id, _, _ := strings.Cut(href, "?")
	id = strings.TrimSuffix(id, "/")
	id = id[strings.LastIndex(id, "/")+1:]
	if _, err := strconv.Atoi(id); err != nil {
		return ""
	}
	return id
}
