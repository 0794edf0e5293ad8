package telegram

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
)

func TestLargestPhoto(t *testing.T) {
	require.Empty(t, LargestPhoto(nil))

	sizes := []models.PhotoSize{
		{FileID: "small", Width: 90, Height: 90},
		{FileID: "large", Width: 1280, Height: 960},
		{FileID: "medium", Width: 320, Height: 240},
	}
	require.Equal(t, "large", LargestPhoto(sizes))
}
