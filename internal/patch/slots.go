package patch

import (
	"fmt"
	"strconv"

	"github.com/udisondev/la2dat/internal/dat"
)

// emptySlotSentinel is the declared slot count of NPCs without passive skills.
// The client data stores 1 instead of 0 for them.
const emptySlotSentinel = 1

// SlotExpander widens the skill slot array of npcgrp and writes one
// (skill id, npc id) pair per assigned category.
//
// The slot array is the header column family Array[0], Array[1], ...; the
// column right before it holds the number of used slot fields (two per skill).
type SlotExpander struct {
	Array    string
	Capacity int
}

// ExpandResult describes the width change of the slot array.
type ExpandResult struct {
	OldCapacity int
	NewCapacity int
	Patched     int
}

// Widened reports whether columns were added to the table.
func (r ExpandResult) Widened() bool {
	return r.NewCapacity > r.OldCapacity
}

// Expand returns the patched records. records[0] must be the header.
func (e SlotExpander) Expand(records []dat.Record, a *Assignment) ([]dat.Record, ExpandResult, error) {
	if e.Capacity <= 0 || e.Capacity%2 != 0 {
		return nil, ExpandResult{}, fmt.Errorf("%w: %d fields", ErrInvalidCapacity, e.Capacity)
	}
	if len(records) == 0 {
		return nil, ExpandResult{}, fmt.Errorf("%w: empty table", dat.ErrMalformedRecord)
	}

	header := records[0]
	span, err := dat.Resolve(header, e.Array+"[")
	if err != nil {
		return nil, ExpandResult{}, err
	}
	if span.Start == 0 {
		return nil, ExpandResult{}, fmt.Errorf("%w: no slot count column before %s", dat.ErrSchemaColumnNotFound, header[span.Start])
	}

	res := ExpandResult{OldCapacity: span.Count, NewCapacity: max(span.Count, e.Capacity)}
	added := res.NewCapacity - res.OldCapacity
	countIdx := span.Start - 1
	insertAt := span.End()

	out := make([]dat.Record, len(records))

	names := make([]string, added)
	for i := range names {
		names[i] = dat.ColumnName(e.Array, res.OldCapacity+i)
	}
	out[0] = header.Insert(insertAt, names...)

	blanks := make([]string, added)
	for i := 1; i < len(records); i++ {
		r := records[i]
		if len(r) != len(header) {
			return nil, ExpandResult{}, fmt.Errorf("%w: record %d has %d fields, header has %d",
				dat.ErrMalformedRecord, i, len(r), len(header))
		}
		r = r.Insert(insertAt, blanks...)

		npcID, err := r.Int32(0)
		if err != nil {
			return nil, ExpandResult{}, fmt.Errorf("record %d: %w", i, err)
		}
		skills, ok := a.Lookup(npcID)
		if !ok {
			out[i] = r
			continue
		}

		if err := e.writeSlots(r, countIdx, span.Start, res.NewCapacity, skills, a); err != nil {
			return nil, ExpandResult{}, fmt.Errorf("record %d: %w", i, err)
		}
		out[i] = r
		res.Patched++
	}

	return out, res, nil
}

func (e SlotExpander) writeSlots(r dat.Record, countIdx, start, capacity int, skills NpcSkills, a *Assignment) error {
	npcID := skills.Snapshot.ID

	declared, err := r.Int(countIdx)
	if err != nil {
		return fmt.Errorf("npc %d slot count: %w", npcID, err)
	}
	if declared == emptySlotSentinel {
		declared = 0
	}
	if declared < 0 || declared%2 != 0 {
		return fmt.Errorf("%w: npc %d declares %d slot fields", dat.ErrMalformedRecord, npcID, declared)
	}

	used := int(declared) + 2*len(skills.Categories)
	if used > capacity {
		return fmt.Errorf("%w: npc %d needs %d slot fields, capacity is %d",
			ErrCapacityOverflow, npcID, used, capacity)
	}

	for i, c := range skills.Categories {
		k := a.Key(c, npcID)
		pos := start + int(declared) + 2*i
		r[pos] = strconv.Itoa(int(k.SkillID))
		r[pos+1] = strconv.Itoa(int(k.NpcID))
	}
	r[countIdx] = strconv.Itoa(used)
	return nil
}
