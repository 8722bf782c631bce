package session

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pitchsix/crickpick/pkg/fantasy/api"
)

var validate = validator.New()

// Draft is the in-progress prediction for one match. Numeric fields are kept
// as the raw digit strings the user typed so that an empty field stays
// distinguishable from zero until submission.
type Draft struct {
	TossWinner     string
	MatchWinner    string
	TopWicketTaker string
	TopRunScorer   string

	HighestRunScored string
	PowerplayRuns    string
	TotalWickets     string

	Picks []api.XFactorPick
}

// NewDraft returns an empty draft.
func NewDraft() *Draft {
	return &Draft{}
}

// newDraftFromStored seeds a draft from a previously stored prediction so
// editing starts from the submitted values.
func newDraftFromStored(stored *api.StoredPrediction) *Draft {
	d := &Draft{
		TossWinner:     stored.TossWinner,
		MatchWinner:    stored.MatchWinner,
		TopWicketTaker: stored.TopWicketTaker,
		TopRunScorer:   stored.TopRunScorer,
	}
	d.HighestRunScored = formatOptional(stored.HighestRunScored)
	d.PowerplayRuns = formatOptional(stored.PowerplayRuns)
	d.TotalWickets = formatOptional(stored.TotalWickets)
	for _, xf := range stored.XFactors {
		d.Picks = append(d.Picks, api.XFactorPick{XFID: xf.XFID, PlayerName: xf.PlayerName})
	}
	return d
}

func formatOptional(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// isDigits reports whether s is a non-empty run of decimal digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// acceptNumeric writes v into *field only when v is empty or digit-only.
// Rejected input leaves the field at its prior value.
func acceptNumeric(field *string, v string) bool {
	if v != "" && !isDigits(v) {
		return false
	}
	*field = v
	return true
}

// SetHighestRunScored updates the highest-team-total field. It reports
// whether the input was accepted.
func (d *Draft) SetHighestRunScored(v string) bool {
	return acceptNumeric(&d.HighestRunScored, v)
}

// SetPowerplayRuns updates the powerplay-runs field.
func (d *Draft) SetPowerplayRuns(v string) bool {
	return acceptNumeric(&d.PowerplayRuns, v)
}

// SetTotalWickets updates the total-wickets field.
func (d *Draft) SetTotalWickets(v string) bool {
	return acceptNumeric(&d.TotalWickets, v)
}

// AddPick appends an X-Factor pick. An identical condition/player pair
// (player compared trimmed and case-insensitively) is rejected; the same
// condition with a different player is allowed.
func (d *Draft) AddPick(pick api.XFactorPick) error {
	player := strings.TrimSpace(pick.PlayerName)
	if player == "" {
		return ErrIncompletePick
	}
	for _, existing := range d.Picks {
		if existing.XFID == pick.XFID && strings.EqualFold(strings.TrimSpace(existing.PlayerName), player) {
			return ErrDuplicatePick
		}
	}
	d.Picks = append(d.Picks, api.XFactorPick{XFID: pick.XFID, PlayerName: player})
	return nil
}

// RemovePick deletes the pick at index i.
func (d *Draft) RemovePick(i int) error {
	if i < 0 || i >= len(d.Picks) {
		return ErrPickIndex
	}
	d.Picks = append(d.Picks[:i], d.Picks[i+1:]...)
	return nil
}

// Payload serializes the draft into the wire shape. Blank numeric fields
// become explicit nulls so the backend records "no prediction," not zero.
func (d *Draft) Payload() *api.PredictionPayload {
	payload := &api.PredictionPayload{
		TossWinner:     strings.TrimSpace(d.TossWinner),
		MatchWinner:    strings.TrimSpace(d.MatchWinner),
		TopWicketTaker: strings.TrimSpace(d.TopWicketTaker),
		TopRunScorer:   strings.TrimSpace(d.TopRunScorer),
		XFactors:       make([]api.XFactorPick, len(d.Picks)),
	}
	copy(payload.XFactors, d.Picks)
	payload.HighestRunScored = parseOptional(d.HighestRunScored)
	payload.PowerplayRuns = parseOptional(d.PowerplayRuns)
	payload.TotalWickets = parseOptional(d.TotalWickets)
	return payload
}

func parseOptional(s string) *int {
	if !isDigits(s) {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// Validate runs the pre-submit checks that never reach the network.
func (d *Draft) Validate() error {
	if err := validate.Struct(d.Payload()); err != nil {
		return ErrWinnersRequired
	}
	return nil
}
