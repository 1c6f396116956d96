package steamgifts

import "context"

// Listing lazily iterates the giveaways of one section, fetching listing
// pages only as the consumer pulls items. A consumer that stops early never
// fetches the remaining pages. The sequence is finite: it ends when the site
// reports a page with no results.
type Listing struct {
	session *Session
	section string
	page    int
	buf     []Giveaway
	done    bool
}

// List starts a fresh iteration of a section from page 1.
func (s *Session) List(section string) *Listing {
	return &Listing{session: s, section: section, page: 1}
}

// Next returns the next giveaway, or nil when the section is exhausted.
func (l *Listing) Next(ctx context.Context) (*Giveaway, error) {
	for len(l.buf) == 0 && !l.done {
		pageURL, err := SectionURL(l.session.baseURL, l.section, l.page)
		if err != nil {
			return nil, err
		}
		page, err := l.session.getPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		l.session.log.Info().Str("section", l.section).Int("page", l.page).Msg("parsing listing page")

		if page.NoResults() {
			l.session.log.Info().Str("section", l.section).Int("page", l.page).
				Msg("listing page is empty, finishing")
			l.done = true
			break
		}

		giveaways, err := page.Giveaways()
		if err != nil {
			return nil, err
		}
		l.buf = giveaways
		l.page++
	}

	if len(l.buf) == 0 {
		return nil, nil
	}
	g := l.buf[0]
	l.buf = l.buf[1:]
	return &g, nil
}
