package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeFieldsDisjointSetsUnion(t *testing.T) {
	client := Payload{"weight_kg": 412.5, "tag_color": "yellow"}
	server := Payload{"name": "Bella", "breed_id": "b-7"}

	merged, conflicting, changed := MergeFields(client, server)

	assert.True(t, changed)
	assert.Empty(t, conflicting)
	assert.Equal(t, Payload{
		"name":      "Bella",
		"breed_id":  "b-7",
		"weight_kg": 412.5,
		"tag_color": "yellow",
	}, merged)
}

func TestMergeFieldsIdenticalPayloadsNoOp(t *testing.T) {
	client := Payload{"name": "Bella", "weight_kg": 412.5}
	server := Payload{"name": "Bella", "weight_kg": 412.5}

	merged, conflicting, changed := MergeFields(client, server)

	assert.False(t, changed)
	assert.Empty(t, conflicting)
	assert.Equal(t, server, merged)
}

func TestMergeFieldsDifferingFieldKeepsServerValue(t *testing.T) {
	client := Payload{"name": "Bella II", "ear_tag": "E-991"}
	server := Payload{"name": "Bella"}

	merged, conflicting, changed := MergeFields(client, server)

	assert.True(t, changed)
	assert.Equal(t, []string{"name"}, conflicting)
	assert.Equal(t, "Bella", merged["name"])
	assert.Equal(t, "E-991", merged["ear_tag"])
}

func TestMergeFieldsConflictingFieldsSortedByKey(t *testing.T) {
	client := Payload{"zone": "north", "age": 4, "name": "x"}
	server := Payload{"zone": "south", "age": 5, "name": "y"}

	_, conflicting, changed := MergeFields(client, server)

	assert.False(t, changed)
	assert.Equal(t, []string{"age", "name", "zone"}, conflicting)
}

func TestMergeFieldsDoesNotMutateInputs(t *testing.T) {
	client := Payload{"a": 1}
	server := Payload{"b": 2}

	merged, _, _ := MergeFields(client, server)
	merged["c"] = 3

	assert.Equal(t, Payload{"a": 1}, client)
	assert.Equal(t, Payload{"b": 2}, server)
}

func TestMergeFieldsNilServer(t *testing.T) {
	merged, conflicting, changed := MergeFields(Payload{"a": 1}, nil)
	assert.True(t, changed)
	assert.Empty(t, conflicting)
	assert.Equal(t, Payload{"a": 1}, merged)
}
