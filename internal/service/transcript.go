package service

import (
	"fmt"
	"strings"

	"github.com/set-night/leadbot/internal/domain"
)

const transcriptTimeLayout = "2006-01-02 15:04:05"

// FormatTranscript renders entries one per line as "[time] role: text".
func FormatTranscript(entries []domain.TranscriptEntry) string {
	var sb strings.Builder
	for _, e := range entries {
		text := e.Text
		if e.HasAttachment() {
			text += " [вложение]"
		}
		fmt.Fprintf(&sb, "[%s] %s: %s\n", e.CreatedAt.Format(transcriptTimeLayout), e.Role, text)
	}
	return sb.String()
}

// Attachments collects the binary attachments of entries in order.
func Attachments(entries []domain.TranscriptEntry) [][]byte {
	var out [][]byte
	for _, e := range entries {
		if e.HasAttachment() {
			out = append(out, e.Attachment)
		}
	}
	return out
}
