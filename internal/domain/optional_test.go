package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patchPayload struct {
	TimeSpent Optional[int]    `json:"timeSpent"`
	Notes     Optional[string] `json:"notes"`
	Status    Optional[string] `json:"status"`
}

func TestOptionalDistinguishesAbsentNullAndZero(t *testing.T) {
	var p patchPayload
	require.NoError(t, json.Unmarshal([]byte(`{"timeSpent":0,"notes":null}`), &p))

	assert.True(t, p.TimeSpent.HasValue())
	assert.Equal(t, 0, p.TimeSpent.Value)

	assert.True(t, p.Notes.Set)
	assert.True(t, p.Notes.Null)
	assert.False(t, p.Notes.HasValue())

	assert.False(t, p.Status.Set)
}

func TestOptionalRejectsWrongType(t *testing.T) {
	var p patchPayload
	assert.Error(t, json.Unmarshal([]byte(`{"timeSpent":"ten"}`), &p))
}
