package npcdata

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrUnknownItem is returned when a drop references an item id absent from the item data.
	ErrUnknownItem = errors.New("unknown item")

	// ErrDuplicateNpc is returned when two NPC files define the same id.
	ErrDuplicateNpc = errors.New("duplicate npc")

	// ErrInvalidChance is returned when a drop chance resolves outside [0, 1].
	ErrInvalidChance = errors.New("invalid drop chance")
)

// Herb item ids (Interlude). An NPC dropping any of them is flagged as a herb dropper.
const (
	firstHerbID = 8600
	lastHerbID  = 8614
)

// --- XML structures (npcs) ---

type xmlNpcList struct {
	XMLName xml.Name `xml:"list"`
	Npcs    []xmlNpc `xml:"npc"`
}

type xmlNpc struct {
	ID    int32  `xml:"id,attr"`
	Level int32  `xml:"level,attr"`
	Type  string `xml:"type,attr"`
	Name  string `xml:"name,attr"`

	Acquire    *xmlNpcAcquire    `xml:"acquire"`
	Stats      *xmlNpcStats      `xml:"stats"`
	AI         *xmlNpcAI         `xml:"ai"`
	DropLists  *xmlNpcDropLists  `xml:"dropLists"`
	Parameters *xmlNpcParameters `xml:"parameters"`
}

type xmlNpcParameters struct {
	Params []xmlNpcParam `xml:"param"`
}

type xmlNpcParam struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type xmlNpcAcquire struct {
	Exp float64 `xml:"exp,attr"`
	SP  float64 `xml:"sp,attr"`
}

type xmlNpcStats struct {
	Vitals  *xmlNpcVitals  `xml:"vitals"`
	Attack  *xmlNpcAttack  `xml:"attack"`
	Defence *xmlNpcDefence `xml:"defence"`
}

type xmlNpcVitals struct {
	HP float64 `xml:"hp,attr"`
	MP float64 `xml:"mp,attr"`
}

type xmlNpcAttack struct {
	Physical float64 `xml:"physical,attr"`
	Magical  float64 `xml:"magical,attr"`
}

type xmlNpcDefence struct {
	Physical float64 `xml:"physical,attr"`
	Magical  float64 `xml:"magical,attr"`
}

type xmlNpcAI struct {
	AggroRange   int32  `xml:"aggroRange,attr"`
	IsAggressive string `xml:"isAggressive,attr"`
}

type xmlNpcDropLists struct {
	Drop  *xmlNpcDrop  `xml:"drop"`
	Spoil *xmlNpcSpoil `xml:"spoil"`
}

type xmlNpcDrop struct {
	Groups []xmlNpcDropGroup `xml:"group"`
	Items  []xmlNpcDropItem  `xml:"item"`
}

type xmlNpcDropGroup struct {
	Chance float64          `xml:"chance,attr"`
	Items  []xmlNpcDropItem `xml:"item"`
}

type xmlNpcDropItem struct {
	ID     int32   `xml:"id,attr"`
	Min    float64 `xml:"min,attr"`
	Max    float64 `xml:"max,attr"`
	Chance float64 `xml:"chance,attr"`
}

type xmlNpcSpoil struct {
	Items []xmlNpcDropItem `xml:"item"`
}

// --- XML structures (items) ---

type xmlItemList struct {
	XMLName xml.Name  `xml:"list"`
	Items   []xmlItem `xml:"item"`
}

type xmlItem struct {
	ID   int32  `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

// XMLProvider reads NPC snapshots from L2J Mobius data files:
// NpcDir holds stats/npcs/*.xml, ItemDir holds stats/items/*.xml.
type XMLProvider struct {
	NpcDir  string
	ItemDir string
}

// NewXMLProvider returns a provider reading from the given directories.
func NewXMLProvider(npcDir, itemDir string) *XMLProvider {
	return &XMLProvider{NpcDir: npcDir, ItemDir: itemDir}
}

// Snapshot parses every item and NPC file and returns the snapshot set.
func (p *XMLProvider) Snapshot(ctx context.Context) (Set, error) {
	names, err := p.itemNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}

	files, err := globXMLFiles(p.NpcDir)
	if err != nil {
		return nil, fmt.Errorf("glob npcs dir: %w", err)
	}

	set := make(Set)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var list xmlNpcList
		if err := unmarshalFile(f, &list); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(f), err)
		}
		for _, xn := range list.Npcs {
			if _, ok := set[xn.ID]; ok {
				return nil, fmt.Errorf("%w: npc %d redefined in %s", ErrDuplicateNpc, xn.ID, filepath.Base(f))
			}
			snap, err := convertNpc(xn, names)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", filepath.Base(f), err)
			}
			set[xn.ID] = snap
		}
	}
	return set, nil
}

func (p *XMLProvider) itemNames(ctx context.Context) (map[int32]string, error) {
	files, err := globXMLFiles(p.ItemDir)
	if err != nil {
		return nil, fmt.Errorf("glob items dir: %w", err)
	}

	names := make(map[int32]string)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var list xmlItemList
		if err := unmarshalFile(f, &list); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(f), err)
		}
		for _, xi := range list.Items {
			names[xi.ID] = xi.Name
		}
	}
	return names, nil
}

func convertNpc(xn xmlNpc, names map[int32]string) (Snapshot, error) {
	snap := Snapshot{
		ID:   xn.ID,
		Name: xn.Name,
		Type: NpcType(xn.Type),
		Stats: Stats{
			Level: int64(xn.Level),
		},
		Drops:  []DropEntry{},
		Spoils: []DropEntry{},
	}

	if xn.Acquire != nil {
		snap.Stats.Exp = roundStat(xn.Acquire.Exp)
		snap.Stats.SP = roundStat(xn.Acquire.SP)
	}

	if xn.Stats != nil {
		if v := xn.Stats.Vitals; v != nil {
			snap.Stats.HP = roundStat(v.HP)
			snap.Stats.MP = roundStat(v.MP)
		}
		if a := xn.Stats.Attack; a != nil {
			snap.Stats.PAtk = roundStat(a.Physical)
			snap.Stats.MAtk = roundStat(a.Magical)
		}
		if d := xn.Stats.Defence; d != nil {
			snap.Stats.PDef = roundStat(d.Physical)
			snap.Stats.MDef = roundStat(d.Magical)
		}
	}

	if xn.AI != nil {
		snap.Stats.Aggressive = parseBoolAttr(xn.AI.IsAggressive) || xn.AI.AggroRange > 0
	}

	snap.Stats.Herbs = hasHerbGroup(xn.Parameters)
	if xn.DropLists == nil {
		return snap, nil
	}

	if drop := xn.DropLists.Drop; drop != nil {
		for _, g := range drop.Groups {
			groupChance := g.Chance
			if groupChance == 0 {
				groupChance = 100
			}
			for _, xi := range g.Items {
				e, err := convertDropItem(xn.ID, xi, groupChance*xi.Chance/10000, names)
				if err != nil {
					return Snapshot{}, err
				}
				snap.Drops = append(snap.Drops, e)
			}
		}
		for _, xi := range drop.Items {
			e, err := convertDropItem(xn.ID, xi, xi.Chance/100, names)
			if err != nil {
				return Snapshot{}, err
			}
			snap.Drops = append(snap.Drops, e)
		}
	}

	if spoil := xn.DropLists.Spoil; spoil != nil {
		for _, xi := range spoil.Items {
			e, err := convertDropItem(xn.ID, xi, xi.Chance/100, names)
			if err != nil {
				return Snapshot{}, err
			}
			snap.Spoils = append(snap.Spoils, e)
		}
	}

	snap.Stats.Herbs = snap.Stats.Herbs || slices.ContainsFunc(snap.Drops, func(e DropEntry) bool {
		return e.ItemID >= firstHerbID && e.ItemID <= lastHerbID
	})

	return snap, nil
}

func convertDropItem(npcID int32, xi xmlNpcDropItem, chance float64, names map[int32]string) (DropEntry, error) {
	name, ok := names[xi.ID]
	if !ok {
		return DropEntry{}, fmt.Errorf("%w: npc %d drops item %d", ErrUnknownItem, npcID, xi.ID)
	}
	if chance < 0 || chance > 1 {
		return DropEntry{}, fmt.Errorf("%w: npc %d item %d chance %v", ErrInvalidChance, npcID, xi.ID, chance)
	}
	return DropEntry{
		ItemID: xi.ID,
		Min:    roundStat(xi.Min),
		Max:    roundStat(xi.Max),
		Chance: chance,
		Name:   name,
	}, nil
}

// hasHerbGroup reports a positive dropHerbGroup parameter.
func hasHerbGroup(p *xmlNpcParameters) bool {
	if p == nil {
		return false
	}
	for _, param := range p.Params {
		if param.Name != "dropHerbGroup" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(param.Value))
		return err == nil && n > 0
	}
	return false
}

func roundStat(v float64) int64 {
	return int64(math.Round(v))
}

func parseBoolAttr(s string) bool {
	return s == "true" || s == "1"
}

func globXMLFiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}
	// filepath.Glob returns matches in lexical order.
	return filepath.Glob(filepath.Join(dir, "*.xml"))
}

func unmarshalFile(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if err := xml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}
