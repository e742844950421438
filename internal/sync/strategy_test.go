package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStrategy(t *testing.T) {
	for _, raw := range []string{"SERVER_WINS", "CLIENT_WINS", "FIELD_MERGE", "MANUAL"} {
		s, ok := ParseStrategy(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, Strategy(raw), s)
	}

	_, ok := ParseStrategy("LAST_WRITE_WINS")
	assert.False(t, ok)
	_, ok = ParseStrategy("")
	assert.False(t, ok)
}

func TestResolveServerWins(t *testing.T) {
	client := Payload{"name": "Bella II"}
	server := Payload{"name": "Bella"}

	res, err := Resolve(StrategyServerWins, ActionUpdate, client, server)

	assert.NoError(t, err)
	assert.False(t, res.Write)
	assert.Equal(t, server, res.Payload)
}

func TestResolveClientWins(t *testing.T) {
	client := Payload{"name": "Bella II"}
	server := Payload{"name": "Bella"}

	res, err := Resolve(StrategyClientWins, ActionUpdate, client, server)

	assert.NoError(t, err)
	assert.True(t, res.Write)
	assert.Equal(t, client, res.Payload)
}

func TestResolveFieldMerge(t *testing.T) {
	client := Payload{"name": "Bella II", "weight_kg": 420.0}
	server := Payload{"name": "Bella"}

	res, err := Resolve(StrategyFieldMerge, ActionUpdate, client, server)

	assert.NoError(t, err)
	assert.True(t, res.Write)
	assert.Equal(t, []string{"name"}, res.ConflictingFields)
	assert.Equal(t, "Bella", res.Payload["name"])
	assert.Equal(t, 420.0, res.Payload["weight_kg"])
}

func TestResolveFieldMergeRejectedForDelete(t *testing.T) {
	_, err := Resolve(StrategyFieldMerge, ActionDelete, Payload{}, Payload{})
	assert.Error(t, err)
}

func TestResolveManualIsNotApplying(t *testing.T) {
	_, err := Resolve(StrategyManual, ActionUpdate, Payload{}, Payload{})
	assert.Error(t, err)
}
