package api

import (
	"encoding/json"
	"strings"
	"time"
)

// Match status values as reported by the server.
const (
	StatusUpcoming  = "upcoming"
	StatusCompleted = "completed"
)

// RiskTier is the severity/reward level of an X-Factor condition.
type RiskTier string

const (
	RiskLow    RiskTier = "LOW"
	RiskMedium RiskTier = "MEDIUM"
	RiskHigh   RiskTier = "HIGH"
)

// RiskTiers lists the tiers in ascending order of risk.
var RiskTiers = []RiskTier{RiskLow, RiskMedium, RiskHigh}

// Match is a fixture as supplied by the server. Actual* fields are only
// populated once the match is completed.
type Match struct {
	ID        int64     `json:"id"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	Venue     string    `json:"venue"`
	StartTime time.Time `json:"start_time"`
	Status    string    `json:"status"`

	ActualTossWinner       string          `json:"actual_toss_winner,omitempty"`
	ActualMatchWinner      string          `json:"actual_match_winner,omitempty"`
	ActualTopWicketTaker   string          `json:"actual_top_wicket_taker,omitempty"`
	ActualTopRunScorer     string          `json:"actual_top_run_scorer,omitempty"`
	ActualHighestRunScored *int            `json:"actual_highest_run_scored,omitempty"`
	ActualPowerplayRuns    *int            `json:"actual_powerplay_runs,omitempty"`
	ActualTotalWickets     *int            `json:"actual_total_wickets,omitempty"`
	ActualXFactors         []ActualXFactor `json:"actual_x_factors,omitempty"`
}

// IsCompleted reports whether the match has finished and actuals are final.
func (m *Match) IsCompleted() bool {
	return m.Status == StatusCompleted
}

// Teams returns the two team names.
func (m *Match) Teams() [2]string {
	return [2]string{m.HomeTeam, m.AwayTeam}
}

// HasTeam reports whether name is one of the two match teams.
func (m *Match) HasTeam(name string) bool {
	return name == m.HomeTeam || name == m.AwayTeam
}

// TopWicketTakers splits the comma-delimited actual top wicket taker field.
// Ties are reported as "Player1, Player2".
func (m *Match) TopWicketTakers() []string {
	if m.ActualTopWicketTaker == "" {
		return nil
	}
	parts := strings.Split(m.ActualTopWicketTaker, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ActualXFactor is a condition that actually occurred in a completed match.
type ActualXFactor struct {
	XFID       string `json:"xf_id"`
	PlayerName string `json:"player_name"`
}

// XFactorDefinition describes one conditional bet offered by the server.
type XFactorDefinition struct {
	ID                string   `json:"id"`
	Risk              RiskTier `json:"risk"`
	Category          string   `json:"category"`
	Description       string   `json:"description"`
	ResultDescription string   `json:"result_description,omitempty"`
}

// StoredXFactor is a submitted X-Factor pick as stored by the server.
// Correct is nil until the match has been scored.
type StoredXFactor struct {
	XFID       string `json:"xf_id"`
	PlayerName string `json:"player_name"`
	Correct    *bool  `json:"correct"`
}

// StoredPrediction is the server's canonical record of a submitted
// prediction. The client treats it as read-only and replaces its local copy
// wholesale on every fetch or successful submit.
type StoredPrediction struct {
	ID               int64           `json:"id"`
	MatchID          int64           `json:"match_id"`
	UserID           int64           `json:"user_id"`
	TossWinner       string          `json:"toss_winner"`
	MatchWinner      string          `json:"match_winner"`
	TopWicketTaker   string          `json:"top_wicket_taker,omitempty"`
	TopRunScorer     string          `json:"top_run_scorer,omitempty"`
	HighestRunScored *int            `json:"highest_run_scored"`
	PowerplayRuns    *int            `json:"powerplay_runs"`
	TotalWickets     *int            `json:"total_wickets"`
	PointsEarned     *int            `json:"points_earned"`
	XFactors         []StoredXFactor `json:"x_factors"`
}

// XFactorPick is the wire form of one X-Factor pick. Display fields (risk
// label, description) are client-side only and never transmitted.
type XFactorPick struct {
	XFID       string `json:"xf_id"`
	PlayerName string `json:"player_name"`
}

// PredictionPayload is the create/update request body. Optional numerics are
// pointers serialized as explicit nulls when unset: the server reads null as
// "no prediction for this field", which is distinct from zero.
type PredictionPayload struct {
	TossWinner       string        `json:"toss_winner" validate:"required"`
	MatchWinner      string        `json:"match_winner" validate:"required"`
	TopWicketTaker   string        `json:"top_wicket_taker"`
	TopRunScorer     string        `json:"top_run_scorer"`
	HighestRunScored *int          `json:"highest_run_scored" validate:"omitempty,gte=0"`
	PowerplayRuns    *int          `json:"powerplay_runs" validate:"omitempty,gte=0"`
	TotalWickets     *int          `json:"total_wickets" validate:"omitempty,gte=0"`
	XFactors         []XFactorPick `json:"x_factors"`
}

// FieldPoints is the score awarded for a correct core-field prediction.
type FieldPoints struct {
	Correct int `json:"correct"`
}

// TierPoints is the score pair for an X-Factor tier.
type TierPoints struct {
	Correct int `json:"correct"`
	Wrong   int `json:"wrong"`
}

// ScoringMeta is the server's point table. Display-only: it never feeds
// validation or submission logic.
type ScoringMeta struct {
	TossWinner       FieldPoints             `json:"toss_winner"`
	MatchWinner      FieldPoints             `json:"match_winner"`
	TopWicketTaker   FieldPoints             `json:"top_wicket_taker"`
	TopRunScorer     FieldPoints             `json:"top_run_scorer"`
	HighestRunScored FieldPoints             `json:"highest_run_scored"`
	PowerplayRuns    FieldPoints             `json:"powerplay_runs"`
	TotalWickets     FieldPoints             `json:"total_wickets"`
	XFactor          map[RiskTier]TierPoints `json:"x_factor"`
}

// LeaderboardEntry is one row of the overall leaderboard.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        int64  `json:"user_id"`
	Username      string `json:"username"`
	TotalPoints   int    `json:"total_points"`
	MatchesPlayed int    `json:"matches_played"`
}

// MatchLeaderboardEntry is one row of a per-match leaderboard.
type MatchLeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        int64  `json:"user_id"`
	Username      string `json:"username"`
	MatchID       int64  `json:"match_id"`
	PointsInMatch int    `json:"points_in_match"`
}

// TokenResponse is the opaque bearer credential issued by the login
// endpoint. The token's contents are never inspected client-side.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RosterSection is a titled group of player names, e.g. one team's squad.
type RosterSection struct {
	Title   string   `json:"title"`
	Players []string `json:"data"`
}

// Roster is the player list for a match. The server returns either a flat
// array of names or pre-grouped sections; the shape is resolved once, at
// decode time, into an explicit tagged form.
type Roster struct {
	Sectioned bool
	Sections  []RosterSection
}

// UnmarshalJSON decodes both roster shapes. A flat list becomes a single
// untitled section with Sectioned=false.
func (r *Roster) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		*r = Roster{}
		return nil
	}

	var sections []RosterSection
	if err := json.Unmarshal(data, &sections); err == nil && sections[0].Players != nil {
		*r = Roster{Sectioned: true, Sections: sections}
		return nil
	}

	var flat []string
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	*r = Roster{Sections: []RosterSection{{Title: "Players", Players: flat}}}
	return nil
}

// Players returns every player name across all sections.
func (r *Roster) Players() []string {
	var names []string
	for _, s := range r.Sections {
		names = append(names, s.Players...)
	}
	return names
}

// Empty reports whether the roster holds no players at all. An empty roster
// signals "no roster available", not an error.
func (r *Roster) Empty() bool {
	return len(r.Players()) == 0
}
