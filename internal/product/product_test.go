package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedup(t *testing.T) {
	in := []Product{
		{ID: "1", Title: "first"},
		{ID: "2", Title: "second"},
		{ID: "1", Title: "duplicate"},
		{ID: "3", Title: "third"},
	}

	out := Dedup(in)

	assert.Len(t, out, 3)
	assert.Equal(t, "first", out[0].Title)
	assert.Equal(t, "2", out[1].ID)
	assert.Equal(t, "3", out[2].ID)
}

func TestDedup_Empty(t *testing.T) {
	assert.Empty(t, Dedup(nil))
}
