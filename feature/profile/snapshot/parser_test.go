package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_PlainPayload(t *testing.T) {
	data := []byte(`{
		"building_list": [{"building_id": 1, "building_master_id": 25}],
		"deco_list": [],
		"unit_list": [{"unit_id": 10001, "unit_master_id": 14102, "unit_level": 1, "class": 4}]
	}`)

	payload, err := Decode(data)
	require.NoError(t, err)
	assert.Len(t, payload.UnitList, 1)
	assert.Len(t, payload.BuildingList, 1)
	assert.Nil(t, payload.Runes)
}

func TestDecode_FriendWrapper(t *testing.T) {
	data := []byte(`{
		"friend": {
			"building_list": [],
			"deco_list": [],
			"unit_list": [{"unit_id": 10001, "unit_master_id": 14102}]
		}
	}`)

	payload, err := Decode(data)
	require.NoError(t, err)
	assert.Len(t, payload.UnitList, 1)
}

func TestDecode_MissingSection(t *testing.T) {
	_, err := Decode([]byte(`{"building_list": []}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = Decode([]byte(`{"unit_list": []}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	// All three mandatory sections are enforced, deco_list included.
	_, err = Decode([]byte(`{"unit_list": [], "building_list": []}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = Decode([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestImportOptions_With(t *testing.T) {
	base := ImportOptions{MinimumStars: 1, ExceptLightDark: true}

	three := 3
	f := false
	merged := base.With(Overrides{MinimumStars: &three, ExceptLightDark: &f})

	assert.Equal(t, 3, merged.MinimumStars)
	assert.False(t, merged.ExceptLightDark)
	// The original is untouched.
	assert.Equal(t, 1, base.MinimumStars)
	assert.True(t, base.ExceptLightDark)
}
