// Package rates applies the VIP multiplier policy to rewards shown in skill text.
package rates

import (
	"math"

	"github.com/udisondev/la2dat/internal/npcdata"
)

// AdenaID is the item id of the in-game currency.
const AdenaID = 57

// Config holds VIP multipliers.
type Config struct {
	Enabled                  bool    `yaml:"enabled"`
	XPSPMultiplier           float64 `yaml:"xp_sp_multiplier"`
	DropChanceMultiplier     float64 `yaml:"drop_chance_multiplier"`
	CurrencyChanceMultiplier float64 `yaml:"currency_chance_multiplier"`
	CurrencyAmountMultiplier float64 `yaml:"currency_amount_multiplier"`
	CurrencyItemID           int32   `yaml:"currency_item_id"`
}

// DefaultConfig returns the VIP policy with scaling disabled.
func DefaultConfig() Config {
	return Config{
		Enabled:                  false,
		XPSPMultiplier:           1.5,
		DropChanceMultiplier:     1.5,
		CurrencyChanceMultiplier: 1.0,
		CurrencyAmountMultiplier: 1.5,
		CurrencyItemID:           AdenaID,
	}
}

// Scaler applies a Config. The zero value scales nothing.
type Scaler struct {
	cfg Config
}

// NewScaler creates a Scaler for cfg.
func NewScaler(cfg Config) Scaler {
	return Scaler{cfg: cfg}
}

// Enabled reports whether scaling is active.
func (s Scaler) Enabled() bool {
	return s.cfg.Enabled
}

// IsCurrency reports whether itemID is the configured currency item.
func (s Scaler) IsCurrency(itemID int32) bool {
	return itemID == s.cfg.CurrencyItemID
}

// ScaleExperience applies the XP/SP multiplier, rounding down.
func (s Scaler) ScaleExperience(v int64) int64 {
	if !s.cfg.Enabled {
		return v
	}
	return int64(math.Floor(float64(v) * s.cfg.XPSPMultiplier))
}

// ScaleDrop applies the drop policy to one entry of an NPC of type t.
// Currency is always scaled; other items are not scaled for raid and grand bosses.
// Chance never exceeds 1.
func (s Scaler) ScaleDrop(e npcdata.DropEntry, t npcdata.NpcType) npcdata.DropEntry {
	if !s.cfg.Enabled {
		return e
	}

	switch {
	case s.IsCurrency(e.ItemID):
		e.Min = scaleAmount(e.Min, s.cfg.CurrencyAmountMultiplier)
		e.Max = scaleAmount(e.Max, s.cfg.CurrencyAmountMultiplier)
		e.Chance = min(e.Chance*s.cfg.CurrencyChanceMultiplier, 1)
	case t.IsBoss():
	default:
		e.Chance = min(e.Chance*s.cfg.DropChanceMultiplier, 1)
	}
	return e
}

func scaleAmount(v int64, mult float64) int64 {
	return int64(math.Round(float64(v) * mult))
}
