package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
)

type registerMatchRequest struct {
	MatchID     int64 `json:"match_id"`
	TeamID      int64 `json:"team_id"`
	EnemyTeamID int64 `json:"enemy_team_id"`
	GameDay     int   `json:"game_day"`
}

type registerTeamRequest struct {
	Name string `json:"name"`
	Tag  string `json:"tag"`
}

type subscriptionRequest struct {
	TeamID       int64    `json:"team_id"`
	ChannelID    string   `json:"channel_id"`
	Platform     string   `json:"platform"`
	EnabledKinds []string `json:"enabled_kinds"`
	PinKinds     []string `json:"pin_kinds"`
	Locale       string   `json:"locale"`
}

type matchResponse struct {
	MatchID       int64  `json:"match_id"`
	TeamID        int64  `json:"team_id"`
	EnemyTeamID   int64  `json:"enemy_team_id"`
	GameDay       int    `json:"game_day"`
	ScheduledTime *int64 `json:"scheduled_time,omitempty"`
	Closed        bool   `json:"closed"`
	Marker        *int64 `json:"last_processed_sequence_id"`
}

type reportResponse struct {
	ChannelID  string `json:"channel_id"`
	Platform   string `json:"platform"`
	EventKind  string `json:"event_kind"`
	Outcome    string `json:"outcome"`
	MessageRef string `json:"message_ref,omitempty"`
	Pinned     bool   `json:"pinned"`
	Error      string `json:"error,omitempty"`
}

type payloadResponse struct {
	ChannelID   string `json:"channel_id"`
	Platform    string `json:"platform"`
	EventKind   string `json:"event_kind"`
	Text        string `json:"text"`
	Mentionable bool   `json:"mentionable"`
	Pinnable    bool   `json:"pinnable"`
}

type pollResponse struct {
	MatchID      int64            `json:"match_id"`
	Unseen       int              `json:"unseen"`
	Dropped      int              `json:"dropped"`
	Events       []string         `json:"events"`
	MarkerBefore *int64           `json:"marker_before"`
	MarkerAfter  *int64           `json:"marker_after"`
	Closed       bool             `json:"closed"`
	Reports      []reportResponse `json:"reports"`
	BuildError   string           `json:"build_error,omitempty"`
}

func toReports(reports []domain.DeliveryReport) []reportResponse {
	out := make([]reportResponse, 0, len(reports))
	for _, r := range reports {
		resp := reportResponse{
			ChannelID:  r.Payload.ChannelID,
			Platform:   string(r.Payload.Platform),
			EventKind:  string(r.Payload.EventKind),
			Outcome:    string(r.Outcome),
			MessageRef: r.MessageRef,
			Pinned:     r.Pinned,
		}
		if r.Err != nil {
			resp.Error = r.Err.Error()
		}
		out = append(out, resp)
	}
	return out
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func (s *Server) handlePollMatch(c echo.Context) error {
	matchID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	result, err := s.deps.Poller.PollMatch(c.Request().Context(), matchID)
	if err != nil {
		return httpError(err)
	}

	resp := pollResponse{
		MatchID:      result.MatchID,
		Unseen:       result.Unseen,
		Dropped:      result.Dropped,
		Events:       make([]string, 0, len(result.Events)),
		MarkerBefore: result.MarkerBefore,
		MarkerAfter:  result.MarkerAfter,
		Closed:       result.Closed,
		Reports:      toReports(result.Reports),
	}
	for _, ev := range result.Events {
		resp.Events = append(resp.Events, string(ev.Kind))
	}
	if result.BuildErr != nil {
		resp.BuildError = result.BuildErr.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRegisterMatch(c echo.Context) error {
	var req registerMatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	state, err := s.deps.Registry.RegisterMatch(c.Request().Context(), req.MatchID, req.TeamID, req.EnemyTeamID, req.GameDay)
	if err != nil {
		return httpError(err)
	}

	resp := matchResponse{
		MatchID:     state.MatchID,
		TeamID:      state.TeamID,
		EnemyTeamID: state.EnemyTeamID,
		GameDay:     state.GameDay,
		Closed:      state.IsClosed,
		Marker:      state.LastProcessedSequenceID,
	}
	if state.ScheduledTime != nil {
		ts := state.ScheduledTime.Unix()
		resp.ScheduledTime = &ts
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRegisterTeam(c echo.Context) error {
	teamID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req registerTeamRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	team := &domain.Team{ID: teamID, Name: req.Name, Tag: req.Tag}
	if err := s.deps.Registry.RegisterTeam(c.Request().Context(), team); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"id": team.ID, "name": team.Name, "tag": team.Tag})
}

func (s *Server) handlePreviewOverview(c echo.Context) error {
	teamID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	payloads, err := s.deps.Overviews.Preview(c.Request().Context(), teamID)
	if err != nil {
		return httpError(err)
	}

	out := make([]payloadResponse, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, payloadResponse{
			ChannelID:   p.ChannelID,
			Platform:    string(p.Platform),
			EventKind:   string(p.EventKind),
			Text:        p.Text,
			Mentionable: p.Mentionable,
			Pinnable:    p.Pinnable,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"payloads": out})
}

func (s *Server) handleSendOverview(c echo.Context) error {
	teamID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	reports, err := s.deps.Overviews.SendOverview(c.Request().Context(), teamID)
	if err != nil && len(reports) == 0 {
		return httpError(err)
	}
	resp := map[string]any{"reports": toReports(reports)}
	if err != nil {
		resp["build_error"] = err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleWeekly(c echo.Context) error {
	gameDay, err := strconv.Atoi(c.Param("gameDay"))
	if err != nil || gameDay <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid game day")
	}

	result, err := s.deps.Digests.Run(c.Request().Context(), gameDay)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"game_day": result.GameDay,
		"teams":    result.Teams,
		"reports":  toReports(result.Reports),
	})
}

func (s *Server) handleSubscribe(c echo.Context) error {
	var req subscriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	sub := &domain.TeamSubscription{
		TeamID:    req.TeamID,
		ChannelID: req.ChannelID,
		Platform:  domain.Platform(req.Platform),
		Locale:    req.Locale,
	}
	var err error
	if req.EnabledKinds != nil {
		if sub.EnabledKinds, err = parseKinds(req.EnabledKinds); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if sub.PinKinds, err = parseKinds(req.PinKinds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.deps.Registry.Subscribe(c.Request().Context(), sub); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"team_id":       sub.TeamID,
		"channel_id":    sub.ChannelID,
		"platform":      sub.Platform,
		"enabled_kinds": sub.EnabledKinds.String(),
		"pin_kinds":     sub.PinKinds.String(),
	})
}

func (s *Server) handleUnsubscribe(c echo.Context) error {
	channelID := c.Param("channel")
	if err := s.deps.Registry.Unsubscribe(c.Request().Context(), channelID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func parseKinds(kinds []string) (domain.EventKindSet, error) {
	set := domain.NewEventKindSet()
	for _, k := range kinds {
		parsed, err := domain.ParseEventKindSet(k)
		if err != nil {
			return nil, err
		}
		for kind := range parsed {
			set[kind] = struct{}{}
		}
	}
	return set, nil
}
