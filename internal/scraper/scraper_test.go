package scraper

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-prophets/prophetd/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const newsJSON = `{"items": [
	{"id": "n1", "source": "lol", "game": "League of Legends", "type": "patch", "title": "Patch 14.9"},
	{"id": "n2", "source": "cs2", "game": "Counter-Strike 2", "type": "news", "title": "Major announced"}
]}`

const matchesJSON = `{"matches": [
	{"id": "m1", "team1": "T1", "team2": "GenG", "game": "lol", "state": "live"},
	{"id": "m2", "team1": "NaVi", "team2": "FaZe", "game": "cs2", "state": "finished"},
	{"id": "m3", "team1": "Fnatic", "team2": "G2", "game": "lol", "state": "upcoming"},
	{"id": "m4", "team1": "Liquid", "team2": "Cloud9", "game": "cs2", "state": ""}
]}`

func TestFetchAssemblesBundle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/news":
			w.Write([]byte(newsJSON))
		case "/matches":
			w.Write([]byte(matchesJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	s := New(srv.URL+"/news", srv.URL+"/matches", time.Second, testLogger())
	bundle, err := s.Fetch(context.Background())
	require.NoError(t, err)

	assert.Len(t, bundle.News, 2)
	assert.Len(t, bundle.Matches.Live, 1)
	assert.Len(t, bundle.Matches.Finished, 1)
	// Unknown state defaults to upcoming.
	assert.Len(t, bundle.Matches.Upcoming, 2)
	assert.False(t, bundle.FetchedAt.IsZero())
}

func TestFetchToleratesOneFailedSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/news":
			w.WriteHeader(http.StatusBadGateway)
		case "/matches":
			w.Write([]byte(matchesJSON))
		}
	}))
	defer srv.Close()

	s := New(srv.URL+"/news", srv.URL+"/matches", time.Second, testLogger())
	bundle, err := s.Fetch(context.Background())
	require.NoError(t, err)

	assert.Empty(t, bundle.News)
	assert.NotNil(t, bundle.News)
	assert.Len(t, bundle.Matches.Live, 1)
}

func TestFetchFailsWhenAllSourcesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := New(srv.URL+"/news", srv.URL+"/matches", time.Second, testLogger())
	_, err := s.Fetch(context.Background())
	assert.ErrorIs(t, err, domain.ErrExternalService)
}
