package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNote_Deleted(t *testing.T) {
	n := Note{ID: "n1", Content: "x", Timestamp: 100}
	assert.False(t, n.Deleted())

	n.DeletedAt = 500
	assert.True(t, n.Deleted())
}

func TestNote_TombstoneSurvivesRoundTrip(t *testing.T) {
	n := Note{ID: "n1", Content: "x", CategoryID: GeneralCategoryID, Timestamp: 100, DeletedAt: 500}
	data, err := json.Marshal(n)
	require.NoError(t, err)

	var got Note
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, n, got)
	assert.True(t, got.Deleted())
}

func TestSameName(t *testing.T) {
	assert.True(t, SameName("Work", "work"))
	assert.True(t, SameName(" Work ", "WORK"))
	assert.False(t, SameName("Work", "Home"))
}

func TestDefaultCategories_ContainsGeneral(t *testing.T) {
	cats := DefaultCategories()
	require.Len(t, cats, 1)
	assert.Equal(t, GeneralCategoryID, cats[0].ID)
	assert.Equal(t, GeneralCategoryName, cats[0].Name)
}
