package usecase

import (
	"fmt"
	"net/url"
	"strings"
)

// LinkConfig holds the URL patterns used in notifications
type LinkConfig struct {
	MatchURL    string // printf pattern taking the match id
	TeamURL     string // printf pattern taking the team id
	ScoutingURL string // base URL, player names are appended as a query value
}

// DefaultLinkConfig is the default link configuration
var DefaultLinkConfig = LinkConfig{
	MatchURL:    "https://www.primeleague.gg/leagues/matches/%d",
	TeamURL:     "https://www.primeleague.gg/leagues/teams/%d",
	ScoutingURL: "https://www.op.gg/multisearch/euw?summoners=",
}

// Match returns the link to a match page
func (c LinkConfig) Match(matchID int64) string {
	if c.MatchURL == "" {
		return ""
	}
	return fmt.Sprintf(c.MatchURL, matchID)
}

// Scouting returns a multi-search link for players, falling back to the team page
func (c LinkConfig) Scouting(teamID int64, players []string) string {
	if len(players) > 0 && c.ScoutingURL != "" {
		return c.ScoutingURL + url.QueryEscape(strings.Join(players, ","))
	}
	if c.TeamURL == "" || teamID == 0 {
		return ""
	}
	return fmt.Sprintf(c.TeamURL, teamID)
}
