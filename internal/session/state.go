package session

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/vbonduro/animalexplorer/internal/domain"
)

// Snapshot is the persisted form of a session, used to rebuild a State.
type Snapshot struct {
	Context  *domain.AnimalRecord
	Messages []domain.ChatMessage
	History  []domain.DetectionEntry
}

// State holds one session's chat transcript, current animal and detection
// history. Reads and writes are guarded by mu; op serialises whole
// operations that span a model call.
type State struct {
	id  string
	now func() time.Time

	op sync.Mutex

	mu       sync.RWMutex
	current  *domain.AnimalRecord
	messages []domain.ChatMessage
	history  []domain.DetectionEntry
	lastSeen time.Time
}

func NewState(id string, now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	return &State{id: id, now: now, lastSeen: now()}
}

func (s *State) ID() string {
	return s.id
}

// AppendDetection records an identification at the current minute and makes
// record the current context.
func (s *State) AppendDetection(record domain.AnimalRecord) domain.DetectionEntry {
	entry := domain.DetectionEntry{
		Timestamp:  s.now().Format(domain.TimestampLayout),
		AnimalName: record.Name,
		AnimalType: record.AnimalType,
	}
	ctx := record.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, entry)
	s.current = &ctx
	return entry
}

func (s *State) AppendMessage(role domain.Role, content string) (domain.ChatMessage, error) {
	if !role.Valid() {
		return domain.ChatMessage{}, fmt.Errorf("invalid chat role %q", role)
	}
	msg := domain.ChatMessage{Role: role, Content: content}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return msg, nil
}

// ClearChat empties the transcript. The current animal is kept.
func (s *State) ClearChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}

// ClearHistory empties the detection history. The current animal is kept.
func (s *State) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

func (s *State) Context() (domain.AnimalRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.AnimalRecord{}, false
	}
	return s.current.Clone(), true
}

func (s *State) Messages() []domain.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages)
}

func (s *State) History() []domain.DetectionEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.history)
}

func (s *State) HistoryNewestFirst() []domain.DetectionEntry {
	h := s.History()
	slices.Reverse(h)
	return h
}

// DetectionCount is the "animals found" counter.
func (s *State) DetectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// Exclusive runs fn while holding the session's operation lock, so that two
// requests on one session never interleave their reads and writes.
func (s *State) Exclusive(fn func() error) error {
	s.op.Lock()
	defer s.op.Unlock()
	s.touch()
	return fn()
}

func (s *State) restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Context != nil {
		ctx := snap.Context.Clone()
		s.current = &ctx
	}
	s.messages = slices.Clone(snap.Messages)
	s.history = slices.Clone(snap.History)
}

func (s *State) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
}

func (s *State) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}
