package middleware

import (
	"context"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
)

func TestParticipantLoader(t *testing.T) {
	var got *Participant
	calls := 0
	h := ParticipantLoader()(func(ctx context.Context, _ *bot.Bot, _ *models.Update) {
		calls++
		got = GetParticipant(ctx)
	})

	h(context.Background(), nil, &models.Update{Message: &models.Message{
		Chat: models.Chat{ID: 42, Type: "private"},
		From: &models.User{ID: 42, FirstName: "Иван", LastName: "Петров", Username: "ivan"},
	}})
	require.Equal(t, 1, calls)
	require.Equal(t, &Participant{ConversationID: 42, DisplayName: "Иван Петров", Username: "ivan"}, got)

	h(context.Background(), nil, &models.Update{Message: &models.Message{
		Chat: models.Chat{ID: -100, Type: "supergroup"},
	}})
	h(context.Background(), nil, &models.Update{})
	require.Equal(t, 1, calls)
}

func TestParticipantFrom_UsernameFallback(t *testing.T) {
	p := participantFrom(&models.Message{
		Chat: models.Chat{ID: 7, Type: "private"},
		From: &models.User{ID: 7, Username: "anon"},
	})
	require.Equal(t, "anon", p.DisplayName)
	require.Nil(t, GetParticipant(context.Background()))
}
