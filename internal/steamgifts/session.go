package steamgifts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	verifyPath = "account/settings/profile"
	ajaxPath   = "ajax.php"

	sessionCookie = "PHPSESSID"
	previouslyWon = "Previously Won"
)

// Config carries the tunables shared by every session.
type Config struct {
	// BaseURL of the site, with or without a trailing slash.
	BaseURL string
	// Throttle is the minimum interval between consecutive page fetches
	// for one account.
	Throttle time.Duration
	// Retry applies to token verification, balance refresh and page
	// fetches. Entry submissions are never retried.
	Retry RetryPolicy
	// Parse turns response bodies into Pages. Defaults to ParseHTML.
	Parse ParseFunc
}

// Session is the authenticated interface to the site for one account. It is
// driven by a single goroutine; methods are not safe for concurrent use.
type Session struct {
	accountID string
	token     string
	baseURL   string
	throttle  time.Duration
	retry     RetryPolicy
	parse     ParseFunc
	client    *http.Client

	csrfToken string
	points    int
	nextCall  time.Time

	log zerolog.Logger
}

// NewSession opens a session for an account identified by its cookie token.
func NewSession(accountID, token string, cfg Config) *Session {
	baseURL := cfg.BaseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	parse := cfg.Parse
	if parse == nil {
		parse = ParseHTML
	}
	return &Session{
		accountID: accountID,
		token:     token,
		baseURL:   baseURL,
		throttle:  cfg.Throttle,
		retry:     cfg.Retry,
		parse:     parse,
		client: &http.Client{
			Timeout: 30 * time.Second,
			// Redirects carry meaning here: a bounced cookie shows up
			// as a redirect to the login page.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: log.With().Str("account_id", accountID).Logger(),
	}
}

// SetToken swaps the session cookie after a credential rotation.
func (s *Session) SetToken(token string) {
	s.token = token
}

// Points returns the balance cached by the last Refresh.
func (s *Session) Points() int {
	return s.points
}

// Close releases the session's network resources.
func (s *Session) Close() {
	s.client.CloseIdleConnections()
}

// Verify checks the account token against the profile-settings page. The
// token is valid iff the page is served directly; a redirect means the
// server rejected the cookie and bounced to the login page. Transient
// failures are retried per policy, exhaustion surfaces as an error.
func (s *Session) Verify(ctx context.Context) (bool, error) {
	var valid bool
	err := s.retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+verifyPath, nil)
		if err != nil {
			return err
		}
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: s.token})

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("verify request returned status %d", resp.StatusCode)
		}
		valid = resp.StatusCode < http.StatusMultipleChoices
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("verify token: %w", err)
	}
	return valid, nil
}

// Refresh fetches the home page and extracts the CSRF token and current
// point balance. It must run before any entry submission so the submission
// carries a fresh token.
func (s *Session) Refresh(ctx context.Context) error {
	err := s.retry.Do(ctx, func() error {
		page, err := s.fetchPage(ctx, s.baseURL)
		if err != nil {
			return err
		}
		csrfToken, err := page.CSRFToken()
		if err != nil {
			return err
		}
		points, err := page.Points()
		if err != nil {
			return err
		}
		s.csrfToken = csrfToken
		s.points = points
		return nil
	})
	if err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}
	return nil
}

type entryResponse struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

// Enter submits an entry for a giveaway. It returns true only when the site
// reports success. "Previously Won" is a benign rejection; any other
// rejection is logged with the server-supplied reason. An undecodable
// response body is an error and aborts this entry attempt only.
func (s *Session) Enter(ctx context.Context, g Giveaway) (bool, error) {
	form := url.Values{
		"xsrf_token": {s.csrfToken},
		"do":         {"entry_insert"},
		"code":       {g.Code},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+ajaxPath,
		strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: s.token})

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("submit entry for %s: %w", g.Code, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read entry response for %s: %w", g.Code, err)
	}

	var er entryResponse
	if err := json.Unmarshal(body, &er); err != nil {
		s.log.Error().Str("code", g.Code).Str("body", string(body)).Msg("could not decode entry response")
		return false, fmt.Errorf("decode entry response for %s: %w", g.Code, err)
	}

	if er.Type == "success" {
		return true, nil
	}
	if er.Msg == previouslyWon {
		s.log.Debug().Str("code", g.Code).Msg("previously won, skipping")
	} else {
		s.log.Warn().Str("code", g.Code).Str("reason", er.Msg).Msg("entry rejected")
	}
	return false, nil
}

// getPage fetches and parses one page, retried per policy.
func (s *Session) getPage(ctx context.Context, pageURL string) (Page, error) {
	var page Page
	err := s.retry.Do(ctx, func() error {
		p, err := s.fetchPage(ctx, pageURL)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	return page, err
}

// fetchPage performs one throttled fetch without retries.
func (s *Session) fetchPage(ctx context.Context, pageURL string) (Page, error) {
	if err := s.waitTurn(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: s.token})

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}
	return s.parse(resp.Body)
}

// waitTurn sleeps until the next permissible call for this account. The
// bookkeeping tolerates long gaps: after an idle stretch the next call runs
// immediately instead of accumulating credit.
func (s *Session) waitTurn(ctx context.Context) error {
	if s.throttle <= 0 {
		return ctx.Err()
	}
	now := time.Now()
	sleep := s.nextCall.Add(s.throttle).Sub(now)
	if next := s.nextCall.Add(s.throttle); next.After(now) {
		s.nextCall = next
	} else {
		s.nextCall = now
	}
	if sleep <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
