package images

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvailable(t *testing.T) {
	assert.False(t, NewClient("", nil, nil).Available())
	assert.True(t, NewClient("imageserver", nil, nil).Available())
}

func TestParallelGenerationIsolatesFailures(t *testing.T) {
	// The command does not exist, so every call fails. Failed items
	// are dropped instead of aborting the batch.
	c := NewClient("/nonexistent/image-server", nil, nil)

	portraits := c.GeneratePortraitsParallel(context.Background(), []PortraitRequest{
		{Name: "Edmund Graves", Role: "butler"},
		{Name: "Dr. Helena Voss", Role: "physician"},
	})
	assert.Empty(t, portraits)

	scenes := c.GenerateScenesParallel(context.Background(), []SceneRequest{
		{Location: "library"},
	})
	assert.Empty(t, scenes)
}

func TestMaxParallelSemaphore(t *testing.T) {
	c := NewClient("imageserver", nil, nil)
	assert.Nil(t, c.newSemaphore())
	assert.Equal(t, 3, cap(c.WithMaxParallel(3).newSemaphore()))
	assert.Nil(t, c.WithMaxParallel(0).newSemaphore())
}
