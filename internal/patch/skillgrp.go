package patch

import (
	"fmt"
	"strconv"

	"github.com/udisondev/la2dat/internal/dat"
)

const iconColumn = "icon_name"

// definitionDefaults holds the field values of a passive, cost-free skill,
// keyed by skillgrp column name. Columns missing here are written as "0".
var definitionDefaults = map[string]string{
	"oper_type":  "2", // passive
	"cast_range": "-1",
	"hit_time":   "0.00000000",
	"ani_char":   "",
	"desc":       "",
	"UNK_0":      "-1",
	"UNK_1":      "-1",
}

// DefinitionAppender adds one skillgrp record per synthetic key. Existing
// records are never modified.
type DefinitionAppender struct{}

// Append returns records followed by the synthetic skill definitions.
// records[0] must be the header; new records follow its column order.
func (DefinitionAppender) Append(records []dat.Record, a *Assignment) ([]dat.Record, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty table", dat.ErrMalformedRecord)
	}
	header := records[0]
	cols, err := resolveKeyColumns(header)
	if err != nil {
		return nil, fmt.Errorf("skillgrp header: %w", err)
	}
	if _, err := dat.Column(header, iconColumn); err != nil {
		return nil, fmt.Errorf("skillgrp header: %w: %w", ErrSchemaMismatch, err)
	}
	if err := a.checkCollisions(records[1:], cols); err != nil {
		return nil, err
	}

	out := make([]dat.Record, len(records), len(records)+len(a.Keys()))
	copy(out, records)

	cats := a.Categories()
	for _, n := range a.NPCs() {
		for _, c := range n.Categories {
			out = append(out, definitionRecord(header, a.Key(c, n.Snapshot.ID), cats.Get(c).Icon))
		}
	}
	return out, nil
}

func definitionRecord(header dat.Record, k SyntheticKey, icon string) dat.Record {
	r := make(dat.Record, len(header))
	for i, col := range header {
		switch col {
		case skillIDColumn:
			r[i] = strconv.Itoa(int(k.SkillID))
		case skillLevelColumn:
			r[i] = strconv.Itoa(int(k.NpcID))
		case iconColumn:
			r[i] = icon
		default:
			v, ok := definitionDefaults[col]
			if !ok {
				v = "0"
			}
			r[i] = v
		}
	}
	return r
}
