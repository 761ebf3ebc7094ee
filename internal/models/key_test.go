package models_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/buildwithkt/wallsync/internal/models"
)

func TestKeyRouting(t *testing.T) {
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("img-%03d", i)

		thumbKey := models.Key(id, models.KindThumb)
		mediaKey := models.Key(id, models.KindMedia)

		assert.Equal(t, id+"::thumb", thumbKey)
		assert.Equal(t, id+"::media", mediaKey)
		assert.Equal(t, models.KindThumb, models.KindOf(thumbKey))
		assert.Equal(t, models.KindMedia, models.KindOf(mediaKey))
		assert.Equal(t, id, models.IDOf(thumbKey))
		assert.Equal(t, id, models.IDOf(mediaKey))
	}
}

func TestKindOfUnknownSuffix(t *testing.T) {
	// Anything that is not a thumbnail key routes to the media partition.
	assert.Equal(t, models.KindMedia, models.KindOf("plain-key"))
	assert.Equal(t, models.KindMedia, models.KindOf("id::other"))
	assert.Equal(t, models.KindMedia, models.KindOf(""))
}

func TestEntryCached(t *testing.T) {
	var nilEntry *models.Entry
	assert.False(t, nilEntry.Cached())

	assert.False(t, (&models.Entry{Key: "a::thumb", Status: models.StatusFailed}).Cached())
	assert.True(t, (&models.Entry{Key: "a::thumb", Status: models.StatusOK}).Cached())
}
