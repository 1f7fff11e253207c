package patch

import (
	"fmt"

	"github.com/udisondev/la2dat/internal/dat"
	"github.com/udisondev/la2dat/internal/npcdata"
)

// SyntheticKey identifies a synthetic skill record. The level column of the
// skill tables carries the owning NPC id, so each NPC gets its own text.
type SyntheticKey struct {
	SkillID int32
	NpcID   int32
}

func (k SyntheticKey) String() string {
	return fmt.Sprintf("%d/%d", k.SkillID, k.NpcID)
}

// NpcSkills is the ordered list of categories assigned to one NPC.
type NpcSkills struct {
	Snapshot   npcdata.Snapshot
	Categories []Category
}

// Assignment is the synthetic key assignment shared by all three table passes.
// NPCs are ordered by id.
type Assignment struct {
	cats  Categories
	npcs  []NpcSkills
	index map[int32]int
}

// Assign computes the key assignment for a snapshot set.
func Assign(set npcdata.Set, cats Categories) (*Assignment, error) {
	if err := cats.Validate(); err != nil {
		return nil, err
	}

	enabled := cats.Enabled()
	a := &Assignment{
		cats:  cats,
		npcs:  make([]NpcSkills, 0, len(set)),
		index: make(map[int32]int, len(set)),
	}

	for _, id := range set.IDs() {
		snap := set[id]
		var assigned []Category
		for _, c := range enabled {
			if applies(c, snap) {
				assigned = append(assigned, c)
			}
		}
		if len(assigned) == 0 {
			continue
		}
		a.index[id] = len(a.npcs)
		a.npcs = append(a.npcs, NpcSkills{Snapshot: snap, Categories: assigned})
	}
	return a, nil
}

// Categories returns the category configuration the assignment was built with.
func (a *Assignment) Categories() Categories {
	return a.cats
}

// NPCs returns the assigned NPCs in id order.
func (a *Assignment) NPCs() []NpcSkills {
	return a.npcs
}

// Lookup returns the assignment of one NPC.
func (a *Assignment) Lookup(npcID int32) (NpcSkills, bool) {
	i, ok := a.index[npcID]
	if !ok {
		return NpcSkills{}, false
	}
	return a.npcs[i], true
}

// Key returns the synthetic key of category c for npcID.
func (a *Assignment) Key(c Category, npcID int32) SyntheticKey {
	return SyntheticKey{SkillID: a.cats.Get(c).SkillID, NpcID: npcID}
}

// Keys returns every synthetic key in output order.
func (a *Assignment) Keys() []SyntheticKey {
	var keys []SyntheticKey
	for _, n := range a.npcs {
		for _, c := range n.Categories {
			keys = append(keys, a.Key(c, n.Snapshot.ID))
		}
	}
	return keys
}

// Key column names shared by skillgrp and skillname-e.
const (
	skillIDColumn    = "skill_id"
	skillLevelColumn = "skill_level"
)

// keyColumns locates the skill key fields of a skill table.
type keyColumns struct {
	id, level int
}

func resolveKeyColumns(header dat.Record) (keyColumns, error) {
	id, err := dat.Column(header, skillIDColumn)
	if err != nil {
		return keyColumns{}, fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}
	level, err := dat.Column(header, skillLevelColumn)
	if err != nil {
		return keyColumns{}, fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}
	return keyColumns{id: id, level: level}, nil
}

// checkCollisions fails if any existing data row of a skill table already uses
// a synthetic key. rows excludes the header.
func (a *Assignment) checkCollisions(rows []dat.Record, cols keyColumns) error {
	keys := make(map[SyntheticKey]struct{})
	for _, k := range a.Keys() {
		keys[k] = struct{}{}
	}
	for i, row := range rows {
		k, err := parseKey(row, cols)
		if err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
		if _, hit := keys[k]; hit {
			return fmt.Errorf("%w: record %d already uses skill %s", ErrSyntheticKeyCollision, i+1, k)
		}
	}
	return nil
}

func parseKey(r dat.Record, cols keyColumns) (SyntheticKey, error) {
	id, err := r.Int32(cols.id)
	if err != nil {
		return SyntheticKey{}, err
	}
	level, err := r.Int32(cols.level)
	if err != nil {
		return SyntheticKey{}, err
	}
	return SyntheticKey{SkillID: id, NpcID: level}, nil
}
