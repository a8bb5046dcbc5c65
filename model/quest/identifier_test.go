package quest_test

import (
	"encoding/json"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/utils/unittest"
)

func TestIdentifier_Parse(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		id := unittest.IdentifierFixture()
		parsed, err := quest.ParseIdentifier(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})

	t.Run("system program", func(t *testing.T) {
		id, err := quest.ParseIdentifier("11111111111111111111111111111111")
		require.NoError(t, err)
		assert.True(t, id.IsZero())
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := quest.ParseIdentifier(base58.Encode(make([]byte, 31)))
		assert.ErrorIs(t, err, quest.ErrInput)
	})

	t.Run("not base58", func(t *testing.T) {
		_, err := quest.ParseIdentifier("0OIl")
		assert.ErrorIs(t, err, quest.ErrInput)
	})

	t.Run("must parse panics", func(t *testing.T) {
		assert.Panics(t, func() { quest.MustParseIdentifier("bad!") })
	})
}

func TestIdentifier_JSON(t *testing.T) {
	id := unittest.IdentifierFixture()
	data, err := json.Marshal(map[string]quest.Identifier{"user": id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"user":"`+id.String()+`"}`, string(data))

	var decoded map[string]quest.Identifier
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded["user"])

	err = json.Unmarshal([]byte(`{"user":"xyz"}`), &decoded)
	assert.Error(t, err)
}
