package domain

type Channel string

const (
	ChannelAlert Channel = "alert" // internal Telegram chat
	ChannelEmail Channel = "email"
	ChannelUser  Channel = "user" // the end user's own chat
)

type Notification struct {
	Channel        Channel
	ConversationID ConversationID
	Subject        string
	Text           string
	Attachments    [][]byte
}
