package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_Suggest(t *testing.T) {
	idx := NewIndex(testProducts())

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "single char is too short", query: "b", want: nil},
		{name: "two chars", query: "ra", want: []string{"Fjallraven Backpack", "Dragon Station Chain Bracelet"}},
		{name: "case insensitive", query: "BACKPACK", want: []string{"Fjallraven Backpack"}},
		{name: "trimmed", query: "  slim fit ", want: []string{"Mens Casual Premium Slim Fit T-Shirts"}},
		{name: "no match", query: "zzz", want: nil},
		{name: "trigrams present but no title contains query", query: "backpack bracelet", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := idx.SuggestTitles(tt.query)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIndex_Search_ExactTitle(t *testing.T) {
	idx := NewIndex(testProducts())

	res := idx.Search("dragon station chain bracelet")
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "5", res.Matches[0].ID)
	assert.Equal(t, "jewelery", res.Category)
}

func TestIndex_Search_Substring(t *testing.T) {
	idx := NewIndex(testProducts())

	res := idx.Search("mens")
	require.NotEmpty(t, res.Matches)
	assert.Equal(t, "2", res.Matches[0].ID)
	assert.Equal(t, "men's clothing", res.Category)
}

func TestIndex_Search_Fuzzy(t *testing.T) {
	idx := NewIndex(testProducts())

	res := idx.Search("fjallraven backpak")
	require.NotEmpty(t, res.Matches)
	assert.Equal(t, "1", res.Matches[0].ID)
}

func TestIndex_Search_Empty(t *testing.T) {
	idx := NewIndex(testProducts())
	assert.Empty(t, idx.Search("   ").Matches)

	var nilIdx *Index
	assert.Empty(t, nilIdx.Search("backpack").Matches)
	assert.Empty(t, nilIdx.Suggest("backpack"))
	assert.Zero(t, nilIdx.Len())
}
