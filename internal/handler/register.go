package handler

import (
	"github.com/go-telegram/bot"
)

// Register wires the command handlers. Everything else arrives through
// HandleMessage as the bot's default handler.
func (h *Handler) Register() {
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "start", bot.MatchTypeCommandStartOnly, h.HandleMessage)
}
