package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSampleItems(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	items := sampleItems(7, now)

	assert.Len(t, items, 7)
	assert.Equal(t, "item_0", items[0].Name)
	assert.Equal(t, "item_6", items[6].Name)
	assert.Equal(t, "books", items[0].Category)
	assert.Equal(t, "books", items[5].Category)
	assert.Equal(t, "games", items[6].Category)
	for i := 1; i < len(items); i++ {
		assert.True(t, items[i-1].CreatedAt.Before(items[i].CreatedAt))
	}
	assert.True(t, items[6].CreatedAt.Before(now))
}
