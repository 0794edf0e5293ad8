package domain

import "time"

// TranscriptEntry is one persisted message. Entries are never edited.
type TranscriptEntry struct {
	ID             int64          `yaml:"id"`
	ConversationID ConversationID `yaml:"conversation_id"`
	Role           Role           `yaml:"role"`
	DisplayName    string         `yaml:"display_name,omitempty"`
	Text           string         `yaml:"text"`
	Attachment     []byte         `yaml:"-"`
	CreatedAt      time.Time      `yaml:"created_at"`
}

func (e TranscriptEntry) HasAttachment() bool {
	return len(e.Attachment) > 0
}
