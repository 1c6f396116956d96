package steamgifts

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, handler http.Handler, retry RetryPolicy) *Session {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSession("acc1", "T1", Config{BaseURL: srv.URL, Retry: retry})
}

func rowHTML(code string, cost int) string {
	return fmt.Sprintf(`<div class="giveaway__row-inner-wrap">
	  <a class="giveaway__heading__name" href="/giveaway/%s/x">%s</a>
	  <span class="giveaway__heading__thin">(%dP)</span>
	</div>`, code, code, cost)
}

func TestVerifyValidToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/account/settings/profile", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		require.NoError(t, err)
		assert.Equal(t, "T1", c.Value)
		w.Write([]byte("<html>profile</html>"))
	})

	s := newTestSession(t, mux, RetryPolicy{Attempts: 1})
	valid, err := s.Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestVerifyRejectedTokenRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/account/settings/profile", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/?login", http.StatusFound)
	})

	s := newTestSession(t, mux, RetryPolicy{Attempts: 1})
	valid, err := s.Verify(context.Background())
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifyRetriesUpToCap(t *testing.T) {
	var attempts int
	s := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}), RetryPolicy{Attempts: 3})

	_, err := s.Verify(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRefreshAndEnter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(homeHTML))
	})
	mux.HandleFunc("/ajax.php", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "tok123", r.PostForm.Get("xsrf_token"))
		assert.Equal(t, "entry_insert", r.PostForm.Get("do"))
		assert.Equal(t, "abc12", r.PostForm.Get("code"))
		w.Write([]byte(`{"type":"success"}`))
	})

	s := newTestSession(t, mux, RetryPolicy{Attempts: 1})
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, 1234, s.Points())

	entered, err := s.Enter(context.Background(), Giveaway{Code: "abc12", Name: "Some Game", Cost: 15})
	require.NoError(t, err)
	assert.True(t, entered)
}

func TestRefreshMissingMarkupRetriesAndFails(t *testing.T) {
	var fetches int
	s := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Write([]byte("<html><body>maintenance</body></html>"))
	}), RetryPolicy{Attempts: 2})

	err := s.Refresh(context.Background())
	require.Error(t, err)
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, fetches)
}

func TestEnterPreviouslyWon(t *testing.T) {
	s := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"error","msg":"Previously Won"}`))
	}), RetryPolicy{Attempts: 1})

	entered, err := s.Enter(context.Background(), Giveaway{Code: "abc12"})
	require.NoError(t, err)
	assert.False(t, entered)
}

func TestEnterOtherRejection(t *testing.T) {
	s := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"error","msg":"Not Enough Points"}`))
	}), RetryPolicy{Attempts: 1})

	entered, err := s.Enter(context.Background(), Giveaway{Code: "abc12"})
	require.NoError(t, err)
	assert.False(t, entered)
}

func TestEnterUndecodableResponse(t *testing.T) {
	s := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway error</html>"))
	}), RetryPolicy{Attempts: 1})

	entered, err := s.Enter(context.Background(), Giveaway{Code: "abc12"})
	require.Error(t, err)
	assert.False(t, entered)
}

func listingMux(t *testing.T, fetches *int) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/giveaways/search", func(w http.ResponseWriter, r *http.Request) {
		*fetches++
		assert.Equal(t, "wishlist", r.URL.Query().Get("type"))
		switch r.URL.Query().Get("page") {
		case "1":
			w.Write([]byte("<html><body>" + rowHTML("aaa11", 5) + rowHTML("bbb22", 20) + "</body></html>"))
		case "2":
			w.Write([]byte("<html><body>" + rowHTML("ccc33", 5) + "</body></html>"))
		default:
			w.Write([]byte(noResultsHTML))
		}
	})
	return mux
}

func TestListingPaginatesUntilNoResults(t *testing.T) {
	var fetches int
	s := newTestSession(t, listingMux(t, &fetches), RetryPolicy{Attempts: 1})

	listing := s.List("Wishlist")
	var codes []string
	for {
		g, err := listing.Next(context.Background())
		require.NoError(t, err)
		if g == nil {
			break
		}
		codes = append(codes, g.Code)
	}

	assert.Equal(t, []string{"aaa11", "bbb22", "ccc33"}, codes)
	assert.Equal(t, 3, fetches, "must stop at the no-results page")

	// Exhausted listings stay exhausted without further fetches.
	g, err := listing.Next(context.Background())
	require.NoError(t, err)
	assert.Nil(t, g)
	assert.Equal(t, 3, fetches)
}

func TestListingStopsFetchingWhenConsumerStops(t *testing.T) {
	var fetches int
	s := newTestSession(t, listingMux(t, &fetches), RetryPolicy{Attempts: 1})

	listing := s.List("Wishlist")
	g, err := listing.Next(context.Background())
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "aaa11", g.Code)
	assert.Equal(t, 1, fetches, "only the first page may be fetched")
}

func TestListingUnknownSection(t *testing.T) {
	var fetches int
	s := newTestSession(t, listingMux(t, &fetches), RetryPolicy{Attempts: 1})

	_, err := s.List("Nonsense").Next(context.Background())
	require.Error(t, err)
	assert.Zero(t, fetches)
}

func TestSetTokenSwapsCookie(t *testing.T) {
	var seen []string
	mux := http.NewServeMux()
	mux.HandleFunc("/account/settings/profile", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		require.NoError(t, err)
		seen = append(seen, c.Value)
		w.Write([]byte("ok"))
	})

	s := newTestSession(t, mux, RetryPolicy{Attempts: 1})
	_, err := s.Verify(context.Background())
	require.NoError(t, err)

	s.SetToken("T2")
	_, err = s.Verify(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"T1", "T2"}, seen)
}
