package npcdata

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testItemsXML = `<?xml version="1.0" encoding="UTF-8"?>
<list>
	<item id="57" type="EtcItem" name="Adena"/>
	<item id="1864" type="EtcItem" name="Stem"/>
	<item id="1869" type="EtcItem" name="Iron Ore"/>
	<item id="8600" type="EtcItem" name="Herb of Life"/>
</list>`

const testNpcsXML = `<?xml version="1.0" encoding="UTF-8"?>
<list>
	<npc id="20001" level="2" type="Monster" name="Gremlin">
		<acquire exp="29.6" sp="2"/>
		<stats>
			<vitals hp="62.4" mp="44" hpRegen="2" mpRegen="0.9"/>
			<attack physical="9.2" magical="6.3" random="10" critical="4"/>
			<defence physical="39.4" magical="32.1"/>
		</stats>
		<ai aggroRange="0" isAggressive="false"/>
		<dropLists>
			<drop>
				<group chance="70">
					<item id="57" min="10" max="20" chance="100"/>
				</group>
				<group chance="50">
					<item id="1864" min="1" max="1" chance="40"/>
					<item id="8600" min="1" max="1" chance="60"/>
				</group>
			</drop>
			<spoil>
				<item id="1869" min="1" max="2" chance="12.5"/>
			</spoil>
		</dropLists>
	</npc>
	<npc id="30001" level="70" type="Merchant" name="Lector">
		<ai aggroRange="300"/>
	</npc>
</list>`

func writeTestData(t *testing.T, items, npcs string) (string, string) {
	t.Helper()
	root := t.TempDir()
	itemDir := filepath.Join(root, "items")
	npcDir := filepath.Join(root, "npcs")
	require.NoError(t, os.MkdirAll(itemDir, 0o755))
	require.NoError(t, os.MkdirAll(npcDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(itemDir, "00000-00099.xml"), []byte(items), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(npcDir, "20000-20099.xml"), []byte(npcs), 0o644))
	return npcDir, itemDir
}

func TestXMLProvider_Snapshot(t *testing.T) {
	npcDir, itemDir := writeTestData(t, testItemsXML, testNpcsXML)

	set, err := NewXMLProvider(npcDir, itemDir).Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, set, 2)
	assert.Equal(t, []int32{20001, 30001}, set.IDs())

	gremlin := set[20001]
	assert.Equal(t, "Gremlin", gremlin.Name)
	assert.Equal(t, TypeMonster, gremlin.Type)
	assert.Equal(t, Stats{
		Level: 2, HP: 62, MP: 44, Exp: 30, SP: 2,
		PAtk: 9, PDef: 39, MAtk: 6, MDef: 32,
		Aggressive: false, Herbs: true,
	}, gremlin.Stats)

	require.Len(t, gremlin.Drops, 3)
	assert.Equal(t, DropEntry{ItemID: 57, Min: 10, Max: 20, Chance: 0.7, Name: "Adena"}, gremlin.Drops[0])
	assert.Equal(t, int32(1864), gremlin.Drops[1].ItemID)
	assert.InDelta(t, 0.2, gremlin.Drops[1].Chance, 1e-12)
	assert.InDelta(t, 0.3, gremlin.Drops[2].Chance, 1e-12)

	require.Len(t, gremlin.Spoils, 1)
	assert.Equal(t, DropEntry{ItemID: 1869, Min: 1, Max: 2, Chance: 0.125, Name: "Iron Ore"}, gremlin.Spoils[0])

	lector := set[30001]
	assert.True(t, lector.Stats.Aggressive, "aggroRange > 0 marks the npc aggressive")
	assert.False(t, lector.HasDrops())
	assert.False(t, lector.HasSpoils())
	assert.NotNil(t, lector.Drops)
}

func TestXMLProvider_HerbGroupParameter(t *testing.T) {
	npcs := `<list>
	<npc id="1" type="Monster"><parameters><param name="dropHerbGroup" value="1"/></parameters></npc>
	<npc id="2" type="Monster"><parameters><param name="dropHerbGroup" value="0"/></parameters></npc>
	<npc id="3" type="Monster"/>
	<npc id="4" type="Monster">
		<parameters><param name="dropHerbGroup" value="2"/></parameters>
		<dropLists><drop><item id="57" min="1" max="5" chance="50"/></drop></dropLists>
	</npc>
</list>`
	npcDir, itemDir := writeTestData(t, testItemsXML, npcs)

	set, err := NewXMLProvider(npcDir, itemDir).Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, set[1].Stats.Herbs)
	assert.False(t, set[2].Stats.Herbs)
	assert.False(t, set[3].Stats.Herbs)
	assert.True(t, set[4].Stats.Herbs, "herb group holds even when no herb item drops")
}

func TestXMLProvider_UnknownItem(t *testing.T) {
	npcs := `<list><npc id="1" type="Monster"><dropLists><spoil><item id="999" min="1" max="1" chance="5"/></spoil></dropLists></npc></list>`
	npcDir, itemDir := writeTestData(t, testItemsXML, npcs)

	_, err := NewXMLProvider(npcDir, itemDir).Snapshot(context.Background())
	require.ErrorIs(t, err, ErrUnknownItem)
	assert.Contains(t, err.Error(), "npc 1")
}

func TestXMLProvider_DuplicateNpc(t *testing.T) {
	npcs := `<list><npc id="1" type="Monster"/><npc id="1" type="Monster"/></list>`
	npcDir, itemDir := writeTestData(t, testItemsXML, npcs)

	_, err := NewXMLProvider(npcDir, itemDir).Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrDuplicateNpc)
}

func TestXMLProvider_InvalidChance(t *testing.T) {
	npcs := `<list><npc id="1" type="Monster"><dropLists><drop><item id="57" min="1" max="1" chance="150"/></drop></dropLists></npc></list>`
	npcDir, itemDir := writeTestData(t, testItemsXML, npcs)

	_, err := NewXMLProvider(npcDir, itemDir).Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrInvalidChance)
}

func TestXMLProvider_MissingDir(t *testing.T) {
	_, err := NewXMLProvider(filepath.Join(t.TempDir(), "nope"), t.TempDir()).Snapshot(context.Background())
	assert.Error(t, err)
}

func TestNpcType_IsBoss(t *testing.T) {
	assert.True(t, TypeRaidBoss.IsBoss())
	assert.True(t, TypeGrandBoss.IsBoss())
	assert.False(t, TypeMonster.IsBoss())
	assert.False(t, NpcType("Minion").IsBoss())
}
