package config

import "time"

const (
	// Telegram limits
	MaxTelegramMessageLen = 4096

	// Side-channel calls (alert chat, e-mail, follow-up sends)
	NotifyTimeout = 15 * time.Second

	// Transcript store open/ping
	StoreOpenTimeout = 30 * time.Second

	// Rate limit window
	RateLimitWindow = time.Minute

	RestartCommand = "/start"
)

// Conversation texts.
const (
	Greeting = "Здравствуйте! Пока я зову менеджера, ответьте на вопрос: " +
		"есть ли у вас уже название или логотип для вашего бизнеса?"

	FallbackReply = "Ошибка. Попробуйте позже."

	ExportAck = "Отправлено менеджеру"

	PhoneAlertFormat  = "Пользователь оставил тел.: %s"
	PhoneEmailSubject = "Телефон"
	ExportSubject     = "Переписка"

	DefaultNudgeText = "Проведем бесплатную экспертизу?"

	DefaultPersuadeText = "Понимаю, мой ответ возможно вас не устроил. " +
		"Но на самом деле, чтобы ответить на ваши вопросы, " +
		"необходимо провести первичную диагностику, " +
		"чтобы не вводить вас в заблуждение и выдать вам точную, правдивую информацию. " +
		"Согласитесь, вы же не хотите, чтобы вам врали?)"

	DefaultContactText = "Оставьте ваши контакты для связи, пожалуйста."
)
