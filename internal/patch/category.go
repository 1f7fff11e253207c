// Package patch injects synthetic informational skills into decoded
// npcgrp, skillgrp and skillname tables.
package patch

import (
	"errors"
	"fmt"

	"github.com/udisondev/la2dat/internal/npcdata"
)

var (
	// ErrCapacityOverflow is returned when an NPC's skill slots would exceed the table capacity.
	ErrCapacityOverflow = errors.New("skill slot capacity overflow")

	// ErrInvalidCapacity is returned for a slot capacity that is not a positive even field count.
	ErrInvalidCapacity = errors.New("invalid slot capacity")

	// ErrSchemaMismatch is returned when a table header lacks a column a patch needs.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrSyntheticKeyCollision is returned when a table already holds a synthetic key.
	ErrSyntheticKeyCollision = errors.New("synthetic key collision")

	// ErrDuplicateSyntheticKey is returned when two categories would produce the same key.
	ErrDuplicateSyntheticKey = errors.New("duplicate synthetic key")
)

// Category is one kind of informational skill.
type Category int

const (
	Information Category = iota
	Drop
	Spoil
)

// AllCategories lists the categories in declaration order.
var AllCategories = []Category{Information, Drop, Spoil}

func (c Category) String() string {
	switch c {
	case Information:
		return "Information"
	case Drop:
		return "Drop"
	case Spoil:
		return "Spoil"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// CategoryConfig configures one category.
type CategoryConfig struct {
	Include bool   `yaml:"include"`
	SkillID int32  `yaml:"skill_id"`
	Icon    string `yaml:"icon"`
}

// Categories configures all three categories.
type Categories struct {
	Information CategoryConfig `yaml:"information"`
	Drop        CategoryConfig `yaml:"drop"`
	Spoil       CategoryConfig `yaml:"spoil"`
}

// DefaultCategories returns every category enabled with the stock skill ids and icons.
func DefaultCategories() Categories {
	return Categories{
		Information: CategoryConfig{Include: true, SkillID: 20000, Icon: "icon.etc_lottery_card_i00"},
		Drop:        CategoryConfig{Include: true, SkillID: 20001, Icon: "icon.etc_adena_i00"},
		Spoil:       CategoryConfig{Include: true, SkillID: 20002, Icon: "icon.skill0254"},
	}
}

// Get returns the configuration of c.
func (cs Categories) Get(c Category) CategoryConfig {
	switch c {
	case Drop:
		return cs.Drop
	case Spoil:
		return cs.Spoil
	default:
		return cs.Information
	}
}

// Enabled returns the included categories in declaration order.
func (cs Categories) Enabled() []Category {
	var out []Category
	for _, c := range AllCategories {
		if cs.Get(c).Include {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks that included categories have distinct skill ids.
func (cs Categories) Validate() error {
	seen := make(map[int32]Category, len(AllCategories))
	for _, c := range cs.Enabled() {
		id := cs.Get(c).SkillID
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("%w: %s and %s share skill id %d", ErrDuplicateSyntheticKey, prev, c, id)
		}
		seen[id] = c
	}
	return nil
}

// applies reports whether category c produces a skill for snap.
// Drop and Spoil are skipped for NPCs without drops or spoils.
func applies(c Category, snap npcdata.Snapshot) bool {
	switch c {
	case Drop:
		return snap.HasDrops()
	case Spoil:
		return snap.HasSpoils()
	default:
		return true
	}
}
