// Package catalog holds the X-Factor condition catalog and the derived
// lookup indexes the prediction flow navigates by.
package catalog

import (
	"sync"

	"github.com/pitchsix/crickpick/pkg/fantasy/api"
)

// Catalog is the set of X-Factor definitions currently offered by the
// server, indexed by identifier and by risk tier. Both indexes are pure
// derivations of the definition list: they are rebuilt wholesale whenever
// the list changes and never mutated independently.
type Catalog struct {
	mu     sync.RWMutex
	defs   []api.XFactorDefinition
	byID   map[string]api.XFactorDefinition
	byRisk map[api.RiskTier][]api.XFactorDefinition
}

// New builds a catalog from a definition list.
func New(defs []api.XFactorDefinition) *Catalog {
	c := &Catalog{}
	c.Replace(defs)
	return c
}

// Replace swaps in a new definition list and rebuilds both indexes.
func (c *Catalog) Replace(defs []api.XFactorDefinition) {
	byID := make(map[string]api.XFactorDefinition, len(defs))
	byRisk := make(map[api.RiskTier][]api.XFactorDefinition)
	for _, def := range defs {
		byID[def.ID] = def
		byRisk[def.Risk] = append(byRisk[def.Risk], def)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.defs = defs
	c.byID = byID
	c.byRisk = byRisk
}

// Lookup returns the definition with the given identifier.
func (c *Catalog) Lookup(id string) (api.XFactorDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.byID[id]
	return def, ok
}

// ForRisk returns the definitions offered at a risk tier, in catalog order.
func (c *Catalog) ForRisk(tier api.RiskTier) []api.XFactorDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byRisk[tier]
}

// Risks returns the tiers that currently offer at least one definition, in
// ascending order of risk.
func (c *Catalog) Risks() []api.RiskTier {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var tiers []api.RiskTier
	for _, tier := range api.RiskTiers {
		if len(c.byRisk[tier]) > 0 {
			tiers = append(tiers, tier)
		}
	}
	return tiers
}

// All returns the full definition list.
func (c *Catalog) All() []api.XFactorDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defs
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.defs)
}
