package domain

import "time"

// NewsItem is one game-news entry (patch notes, tournament announcements).
type NewsItem struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"` // e.g. "lol", "cs2", "valorant"
	Game        string    `json:"game"`
	Type        string    `json:"type"` // "patch", "news", "tournament"
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"publishedAt"`
}

// MatchState buckets a match into the feed's three display groups.
type MatchState string

const (
	MatchUpcoming MatchState = "upcoming"
	MatchLive     MatchState = "live"
	MatchFinished MatchState = "finished"
)

// Match is one esports match from the upstream match feed.
type Match struct {
	ID         string     `json:"id"`
	Team1      string     `json:"team1"`
	Team2      string     `json:"team2"`
	Game       string     `json:"game"`
	Tournament string     `json:"tournament"`
	State      MatchState `json:"state"`
	Link       string     `json:"link"`
	StartAt    time.Time  `json:"startAt"`
}

// MatchSet groups matches by state, mirroring the front-end layout.
type MatchSet struct {
	Upcoming []Match `json:"upcoming"`
	Live     []Match `json:"live"`
	Finished []Match `json:"finished"`
}

// FeedBundle is the full feed payload served to the UI. A bundle is always
// structurally valid: failed upstream sources contribute empty slices,
// never a missing field.
type FeedBundle struct {
	News      []NewsItem `json:"news"`
	Matches   MatchSet   `json:"matches"`
	FetchedAt time.Time  `json:"fetchedAt"`
}

// EmptyFeedBundle returns a bundle with all slices allocated, used when
// every upstream source is unavailable.
func EmptyFeedBundle() FeedBundle {
	return FeedBundle{
		News: []NewsItem{},
		Matches: MatchSet{
			Upcoming: []Match{},
			Live:     []Match{},
			Finished: []Match{},
		},
		FetchedAt: time.Now().UTC(),
	}
}
