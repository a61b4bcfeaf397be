// Package scraper fetches the esports news and match feeds from their
// upstream JSON APIs and assembles them into a single bundle.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/digital-prophets/prophetd/internal/domain"
)

// Scraper aggregates the news and match sources. Each source is fetched
// independently; a failed source contributes an empty slice instead of
// failing the bundle.
type Scraper struct {
	newsURL    string
	matchesURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Scraper over the configured source URLs.
func New(newsURL, matchesURL string, timeout time.Duration, logger *slog.Logger) *Scraper {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Scraper{
		newsURL:    newsURL,
		matchesURL: matchesURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "scraper")),
	}
}

// Fetch pulls both sources concurrently and returns the assembled bundle.
// Fetch only errors when every source fails; partial results are served
// with the missing sections empty.
func (s *Scraper) Fetch(ctx context.Context) (domain.FeedBundle, error) {
	bundle := domain.EmptyFeedBundle()

	var newsErr, matchErr error
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		news, err := s.fetchNews(gctx)
		if err != nil {
			newsErr = err
			s.logger.WarnContext(gctx, "news fetch failed",
				slog.String("error", err.Error()),
			)
			return nil
		}
		bundle.News = news
		return nil
	})

	g.Go(func() error {
		matches, err := s.fetchMatches(gctx)
		if err != nil {
			matchErr = err
			s.logger.WarnContext(gctx, "match fetch failed",
				slog.String("error", err.Error()),
			)
			return nil
		}
		bundle.Matches = groupMatches(matches)
		return nil
	})

	// The goroutines absorb their own errors; Wait only propagates ctx
	// cancellation.
	if err := g.Wait(); err != nil {
		return domain.FeedBundle{}, err
	}

	if newsErr != nil && matchErr != nil {
		return domain.FeedBundle{}, fmt.Errorf("scraper: all sources failed: %w", domain.ErrExternalService)
	}

	bundle.FetchedAt = time.Now().UTC()
	return bundle, nil
}

func (s *Scraper) fetchNews(ctx context.Context) ([]domain.NewsItem, error) {
	var payload struct {
		Items []domain.NewsItem `json:"items"`
	}
	if err := s.getJSON(ctx, s.newsURL, &payload); err != nil {
		return nil, err
	}
	if payload.Items == nil {
		payload.Items = []domain.NewsItem{}
	}
	return payload.Items, nil
}

func (s *Scraper) fetchMatches(ctx context.Context) ([]domain.Match, error) {
	var payload struct {
		Matches []domain.Match `json:"matches"`
	}
	if err := s.getJSON(ctx, s.matchesURL, &payload); err != nil {
		return nil, err
	}
	return payload.Matches, nil
}

// groupMatches buckets matches into the three display groups. Matches with
// an unknown state are treated as upcoming.
func groupMatches(matches []domain.Match) domain.MatchSet {
	set := domain.MatchSet{
		Upcoming: []domain.Match{},
		Live:     []domain.Match{},
		Finished: []domain.Match{},
	}
	for _, m := range matches {
		switch m.State {
		case domain.MatchLive:
			set.Live = append(set.Live, m)
		case domain.MatchFinished:
			set.Finished = append(set.Finished, m)
		default:
			m.State = domain.MatchUpcoming
			set.Upcoming = append(set.Upcoming, m)
		}
	}
	return set
}

func (s *Scraper) getJSON(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d from %s", domain.ErrExternalService, resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrExternalService, err)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
