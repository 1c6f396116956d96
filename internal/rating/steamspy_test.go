package rating

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppVotes(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "appdetails", r.URL.Query().Get("request"))
		assert.Equal(t, "440", r.URL.Query().Get("appid"))
		w.Write([]byte(`{"appid":440,"name":"Team Fortress 2","positive":123,"negative":45}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	votes := c.AppVotes(context.Background(), "440")

	assert.Equal(t, Votes{Positive: 123, Negative: 45}, votes)
	assert.Equal(t, 1, requests)
}

func TestAppVotesMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not json"))
	}))
	defer srv.Close()

	votes := NewClient(srv.URL, 0).AppVotes(context.Background(), "440")
	assert.Equal(t, Votes{}, votes)
}

func TestAppVotesEmptyID(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	votes := NewClient(srv.URL, 0).AppVotes(context.Background(), "")
	assert.Equal(t, Votes{}, votes)
	assert.Zero(t, requests)
}

func TestAppVotesUnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	votes := NewClient(srv.URL, 0).AppVotes(context.Background(), "440")
	assert.Equal(t, Votes{}, votes)
}
