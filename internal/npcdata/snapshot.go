// Package npcdata assembles per-NPC snapshots (stats, drop and spoil lists)
// from server-side game data.
package npcdata

import "slices"

// NpcType is the L2J template type of an NPC, e.g. "Monster" or "RaidBoss".
type NpcType string

const (
	TypeMonster   NpcType = "Monster"
	TypeRaidBoss  NpcType = "RaidBoss"
	TypeGrandBoss NpcType = "GrandBoss"
)

// IsBoss reports whether the type is a raid or grand boss.
func (t NpcType) IsBoss() bool {
	return t == TypeRaidBoss || t == TypeGrandBoss
}

// Stats holds the values shown in the Information skill.
type Stats struct {
	Level      int64
	HP         int64
	MP         int64
	Exp        int64
	SP         int64
	PAtk       int64
	PDef       int64
	MAtk       int64
	MDef       int64
	Aggressive bool
	Herbs      bool
}

// DropEntry is one item of a drop or spoil list.
// Chance is an absolute probability in [0, 1].
type DropEntry struct {
	ItemID int32
	Min    int64
	Max    int64
	Chance float64
	Name   string
}

// Snapshot is everything the patcher needs to know about one NPC.
// Drops and Spoils are empty when the NPC has none.
type Snapshot struct {
	ID     int32
	Name   string
	Type   NpcType
	Stats  Stats
	Drops  []DropEntry
	Spoils []DropEntry
}

// HasDrops reports whether the NPC has at least one drop entry.
func (s Snapshot) HasDrops() bool { return len(s.Drops) > 0 }

// HasSpoils reports whether the NPC has at least one spoil entry.
func (s Snapshot) HasSpoils() bool { return len(s.Spoils) > 0 }

// Set maps NPC id to its snapshot.
type Set map[int32]Snapshot

// IDs returns the NPC ids in ascending order.
func (s Set) IDs() []int32 {
	ids := make([]int32, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
