package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuneInfoList_UnmarshalBothShapes(t *testing.T) {
	// Recent exports use a list.
	var asList RuneInfoList
	err := json.Unmarshal([]byte(`[{"rune_id":1,"slot_no":2},{"rune_id":2,"slot_no":4}]`), &asList)
	require.NoError(t, err)
	assert.Len(t, asList, 2)

	// Old exports key the collection by rune id.
	var asMap RuneInfoList
	err = json.Unmarshal([]byte(`{"1":{"rune_id":1,"slot_no":2},"2":{"rune_id":2,"slot_no":4}}`), &asMap)
	require.NoError(t, err)
	assert.Len(t, asMap, 2)
}

func TestRuneInfo_AncientEncoding(t *testing.T) {
	r := RuneInfo{Class: 16, Extra: 14}
	assert.Equal(t, 6, r.Stars())
	assert.True(t, r.IsAncient())
	assert.Equal(t, 4, r.OriginalQuality())

	normal := RuneInfo{Class: 5, Extra: 3}
	assert.Equal(t, 5, normal.Stars())
	assert.False(t, normal.IsAncient())
	assert.Equal(t, 3, normal.OriginalQuality())
}

func TestRuneInfo_Rolls(t *testing.T) {
	r := RuneInfo{
		PriEff:    []float64{8, 12},
		PrefixEff: []float64{9, 5},
		SecEff: [][]float64{
			{4, 16, 0, 0},
			{10, 14, 1, 4},
		},
	}

	main, mainVal := r.MainRoll()
	assert.Equal(t, StatSPD, main)
	assert.Equal(t, 12.0, mainVal)

	innate, innateVal := r.InnateRoll()
	assert.Equal(t, StatCritRate, innate)
	assert.Equal(t, 5.0, innateVal)

	rolls := r.SubstatRolls()
	require.Len(t, rolls, 2)
	assert.Equal(t, Roll{Stat: StatATKPct, Value: 16}, rolls[0])
	assert.Equal(t, Roll{Stat: StatCritDmg, Value: 14, Enchanted: true, Grind: 4}, rolls[1])
}

func TestUnitInfo_SkillLevelsAndCreateTime(t *testing.T) {
	u := UnitInfo{
		CreateTime: "2020-03-01 10:30:00",
		Skills:     [][]int64{{5566, 1}, {5567, 3}},
	}

	assert.Equal(t, IntList{1, 3}, u.SkillLevels())

	created := u.CreatedOn()
	require.NotNil(t, created)
	assert.Equal(t, 2020, created.Year())

	assert.Nil(t, (&UnitInfo{}).CreatedOn())
	assert.Nil(t, (&UnitInfo{CreateTime: "garbage"}).CreatedOn())
}

func TestCraftInfo_Decode(t *testing.T) {
	c := CraftInfo{CraftTypeID: 80402}
	set, stat, quality := c.Decode()
	assert.Equal(t, 8, set)
	assert.Equal(t, StatATKPct, stat)
	assert.Equal(t, 2, quality)
}

func TestFriendWrapper(t *testing.T) {
	raw := `{"friend":{"building_list":[],"deco_list":[],"unit_list":[{"unit_id":1}]}}`

	var wrapper FriendWrapper
	require.NoError(t, json.Unmarshal([]byte(raw), &wrapper))
	require.NotNil(t, wrapper.Friend)
	assert.Len(t, wrapper.Friend.UnitList, 1)
	assert.Nil(t, wrapper.Friend.Runes)
}
