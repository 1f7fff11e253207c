package patch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/udisondev/la2dat/internal/dat"
	"github.com/udisondev/la2dat/internal/format"
	"github.com/udisondev/la2dat/internal/npcdata"
	"github.com/udisondev/la2dat/internal/rates"
)

// Escape tokens of the l2asm text format. They are written literally.
const (
	tokenNull    = `\0`
	tokenNewline = `\n`

	stringPrefix = "a,"
	emptyText    = stringPrefix + "none" + tokenNull
	titleRule    = "........................................"
)

// skillname-e text columns. Other columns of a new record get emptyText.
const (
	nameColumn        = "name"
	descriptionColumn = "description"
)

var nameSanitizer = strings.NewReplacer("\t", " ", "\r", "", "\n", " ", `\`, "/")

// TextAppender adds one skillname record per synthetic key carrying the
// formatted NPC information, drop list or spoil list.
type TextAppender struct {
	Formatter format.Formatter
	Scaler    rates.Scaler
}

// Append returns records followed by the synthetic skill names.
// records[0] must be the header.
func (t TextAppender) Append(records []dat.Record, a *Assignment) ([]dat.Record, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty table", dat.ErrMalformedRecord)
	}
	header := records[0]
	cols, err := resolveKeyColumns(header)
	if err != nil {
		return nil, fmt.Errorf("skillname header: %w", err)
	}
	for _, col := range []string{nameColumn, descriptionColumn} {
		if _, err := dat.Column(header, col); err != nil {
			return nil, fmt.Errorf("skillname header: %w: %w", ErrSchemaMismatch, err)
		}
	}
	if err := a.checkCollisions(records[1:], cols); err != nil {
		return nil, err
	}

	out := make([]dat.Record, len(records), len(records)+len(a.Keys()))
	copy(out, records)

	for _, n := range a.NPCs() {
		for _, c := range n.Categories {
			body, err := t.Body(c, n.Snapshot)
			if err != nil {
				return nil, fmt.Errorf("npc %d %s: %w", n.Snapshot.ID, c, err)
			}
			out = append(out, textRecord(header, a.Key(c, n.Snapshot.ID), c, body))
		}
	}
	return out, nil
}

// Body renders the description text of category c for snap.
func (t TextAppender) Body(c Category, snap npcdata.Snapshot) (string, error) {
	switch c {
	case Information:
		return t.information(snap), nil
	case Drop:
		return t.dropList(snap)
	case Spoil:
		return t.spoilList(snap)
	default:
		return "", fmt.Errorf("unknown category %d", int(c))
	}
}

func (t TextAppender) information(snap npcdata.Snapshot) string {
	st := snap.Stats
	var b strings.Builder
	fmt.Fprintf(&b, "NPC ID: %d   Level: %d   Aggro: %s   Herbs: %s%s",
		snap.ID, st.Level, yesNo(st.Aggressive), yesNo(st.Herbs), tokenNewline)
	fmt.Fprintf(&b, "Exp: %d   SP: %d   HP: %d   MP: %d%s",
		t.Scaler.ScaleExperience(st.Exp), t.Scaler.ScaleExperience(st.SP), st.HP, st.MP, tokenNewline)
	fmt.Fprintf(&b, "P. Atk: %d   P. Def: %d   M. Atk: %d   M. Def: %d%s",
		st.PAtk, st.PDef, st.MAtk, st.MDef, tokenNewline)
	return b.String()
}

// dropList puts currency lines first; every other line keeps its arrival order.
func (t TextAppender) dropList(snap npcdata.Snapshot) (string, error) {
	var currency, rest strings.Builder
	for _, e := range snap.Drops {
		line, err := t.entryLine(t.Scaler.ScaleDrop(e, snap.Type))
		if err != nil {
			return "", fmt.Errorf("item %d: %w", e.ItemID, err)
		}
		if t.Scaler.IsCurrency(e.ItemID) {
			currency.WriteString(line)
		} else {
			rest.WriteString(line)
		}
	}
	return currency.String() + rest.String(), nil
}

func (t TextAppender) spoilList(snap npcdata.Snapshot) (string, error) {
	var b strings.Builder
	for _, e := range snap.Spoils {
		line, err := t.entryLine(e)
		if err != nil {
			return "", fmt.Errorf("item %d: %w", e.ItemID, err)
		}
		b.WriteString(line)
	}
	return b.String(), nil
}

func (t TextAppender) entryLine(e npcdata.DropEntry) (string, error) {
	chance, err := t.Formatter.Format(e.Chance)
	if err != nil {
		return "", err
	}
	amount := strconv.FormatInt(e.Min, 10)
	if e.Min != e.Max {
		amount += "-" + strconv.FormatInt(e.Max, 10)
	}
	return fmt.Sprintf("%s [%s] %s%s", nameSanitizer.Replace(e.Name), amount, chance, tokenNewline), nil
}

// Title renders the skill name shown above the description.
func Title(c Category) string {
	return titleRule + "::: " + c.String() + " :::" + titleRule
}

func textRecord(header dat.Record, k SyntheticKey, c Category, body string) dat.Record {
	r := make(dat.Record, len(header))
	for i, col := range header {
		switch col {
		case skillIDColumn:
			r[i] = strconv.Itoa(int(k.SkillID))
		case skillLevelColumn:
			r[i] = strconv.Itoa(int(k.NpcID))
		case nameColumn:
			r[i] = stringPrefix + Title(c) + tokenNull
		case descriptionColumn:
			r[i] = stringPrefix + body + tokenNull
		default:
			r[i] = emptyText
		}
	}
	return r
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
