package session

import (
	"strings"

	"github.com/pitchsix/crickpick/pkg/fantasy/api"
	"github.com/pitchsix/crickpick/pkg/fantasy/catalog"
)

// Picker walks the three-step X-Factor selection: risk tier, then a
// condition offered at that tier, then a player. Conditions are partitioned
// by tier, so changing the tier invalidates the chosen condition. The player
// choice survives a tier change because player lists do not depend on the
// tier.
type Picker struct {
	catalog *catalog.Catalog

	risk      api.RiskTier
	condition string
	player    string
}

// NewPicker creates a picker over the given condition catalog.
func NewPicker(c *catalog.Catalog) *Picker {
	return &Picker{catalog: c}
}

// SelectRisk chooses a risk tier. Any previously chosen condition is
// cleared.
func (p *Picker) SelectRisk(tier api.RiskTier) {
	if p.risk == tier {
		return
	}
	p.risk = tier
	p.condition = ""
}

// SelectCondition chooses a condition. The condition must exist in the
// catalog and belong to the currently selected tier.
func (p *Picker) SelectCondition(id string) error {
	if p.risk == "" {
		return ErrIncompletePick
	}
	def, ok := p.catalog.Lookup(id)
	if !ok || def.Risk != p.risk {
		return ErrIncompletePick
	}
	p.condition = id
	return nil
}

// SetPlayer records the player the condition applies to.
func (p *Picker) SetPlayer(name string) {
	p.player = name
}

// Risk returns the selected tier, empty when unset.
func (p *Picker) Risk() api.RiskTier { return p.risk }

// Condition returns the selected condition identifier, empty when unset.
func (p *Picker) Condition() string { return p.condition }

// Player returns the selected player name as entered.
func (p *Picker) Player() string { return p.player }

// Conditions returns the conditions offered at the selected tier.
func (p *Picker) Conditions() []api.XFactorDefinition {
	if p.risk == "" {
		return nil
	}
	return p.catalog.ForRisk(p.risk)
}

// CanConfirm reports whether risk, condition, and a non-empty trimmed
// player name are all present.
func (p *Picker) CanConfirm() bool {
	return p.risk != "" && p.condition != "" && strings.TrimSpace(p.player) != ""
}

// Confirm produces the pick and resets the picker for the next selection.
func (p *Picker) Confirm() (api.XFactorPick, error) {
	if !p.CanConfirm() {
		return api.XFactorPick{}, ErrIncompletePick
	}
	pick := api.XFactorPick{
		XFID:       p.condition,
		PlayerName: strings.TrimSpace(p.player),
	}
	p.Reset()
	return pick, nil
}

// Reset clears all three selections.
func (p *Picker) Reset() {
	p.risk = ""
	p.condition = ""
	p.player = ""
}
