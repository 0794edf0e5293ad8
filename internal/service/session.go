package service

import (
	"sync"
	"time"

	"github.com/set-night/leadbot/internal/domain"
)

// SessionStore holds the rolling prompt context of every live conversation.
// It is a cache: the transcript store is the durable record.
type SessionStore struct {
	mu           sync.Mutex
	sessions     map[domain.ConversationID]*domain.SessionState
	systemPrompt string
	greeting     string
	maxTurns     int
	now          func() time.Time
}

// NewSessionStore creates an empty store. maxTurns caps the non-system turns
// kept per conversation; 0 keeps the full history.
func NewSessionStore(systemPrompt, greeting string, maxTurns int) *SessionStore {
	return &SessionStore{
		sessions:     make(map[domain.ConversationID]*domain.SessionState),
		systemPrompt: systemPrompt,
		greeting:     greeting,
		maxTurns:     maxTurns,
		now:          time.Now,
	}
}

// Start begins a fresh conversation, replacing any prior state for id.
func (s *SessionStore) Start(id domain.ConversationID) *domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := &domain.SessionState{
		ConversationID: id,
		Turns: []domain.Turn{
			{Role: domain.RoleSystem, Content: s.systemPrompt},
			{Role: domain.RoleAssistant, Content: s.greeting},
		},
		StartedAt: s.now(),
	}
	s.sessions[id] = state
	return state.Clone()
}

func (s *SessionStore) Get(id domain.ConversationID) (*domain.SessionState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return state.Clone(), true
}

// Restore rebuilds the state of id from its transcript. Only entries after
// the most recent greeting belong to the current conversation; without a
// greeting every entry is replayed after the system turn.
func (s *SessionStore) Restore(id domain.ConversationID, entries []domain.TranscriptEntry) *domain.SessionState {
	start := -1
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Role == domain.RoleAssistant && entries[i].Text == s.greeting {
			start = i
			break
		}
	}

	state := &domain.SessionState{
		ConversationID: id,
		Turns:          []domain.Turn{{Role: domain.RoleSystem, Content: s.systemPrompt}},
		StartedAt:      s.now(),
	}
	if start >= 0 {
		state.Turns = append(state.Turns, domain.Turn{Role: domain.RoleAssistant, Content: s.greeting})
		state.StartedAt = entries[start].CreatedAt
	} else if len(entries) > 0 {
		state.StartedAt = entries[0].CreatedAt
	}

	for _, e := range entries[start+1:] {
		if e.Role != domain.RoleUser && e.Role != domain.RoleAssistant {
			continue
		}
		state.Turns = append(state.Turns, domain.Turn{Role: e.Role, Content: e.Text})
		if e.Role == domain.RoleUser {
			state.TurnCount++
			if _, ok := ExtractPhone(e.Text); ok {
				state.ContactCaptured = true
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	state.Turns = s.capLocked(state.Turns)
	s.sessions[id] = state
	return state.Clone()
}

// RecordUserTurn appends a user turn and increments the turn counter. A
// conversation without state starts from the system turn alone.
func (s *SessionStore) RecordUserTurn(id domain.ConversationID, text string) *domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.getOrInitLocked(id)
	state.Turns = s.capLocked(append(state.Turns, domain.Turn{Role: domain.RoleUser, Content: text}))
	state.TurnCount++
	return state.Clone()
}

func (s *SessionStore) RecordAssistantTurn(id domain.ConversationID, text string) *domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.getOrInitLocked(id)
	state.Turns = s.capLocked(append(state.Turns, domain.Turn{Role: domain.RoleAssistant, Content: text}))
	return state.Clone()
}

func (s *SessionStore) MarkContactCaptured(id domain.ConversationID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getOrInitLocked(id).ContactCaptured = true
}

func (s *SessionStore) TurnCount(id domain.ConversationID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.sessions[id]; ok {
		return state.TurnCount
	}
	return 0
}

// Context returns the ordered turns to send to the completion provider.
func (s *SessionStore) Context(id domain.ConversationID) []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.Turn(nil), s.getOrInitLocked(id).Turns...)
}

func (s *SessionStore) Forget(id domain.ConversationID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
}

func (s *SessionStore) getOrInitLocked(id domain.ConversationID) *domain.SessionState {
	state, ok := s.sessions[id]
	if !ok {
		state = &domain.SessionState{
			ConversationID: id,
			Turns:          []domain.Turn{{Role: domain.RoleSystem, Content: s.systemPrompt}},
			StartedAt:      s.now(),
		}
		s.sessions[id] = state
	}
	return state
}

// capLocked keeps the leading system turn and the most recent maxTurns turns.
func (s *SessionStore) capLocked(turns []domain.Turn) []domain.Turn {
	if s.maxTurns <= 0 || len(turns) == 0 {
		return turns
	}
	head := 0
	if turns[0].Role == domain.RoleSystem {
		head = 1
	}
	if len(turns)-head <= s.maxTurns {
		return turns
	}
	out := make([]domain.Turn, 0, head+s.maxTurns)
	out = append(out, turns[:head]...)
	return append(out, turns[len(turns)-s.maxTurns:]...)
}
