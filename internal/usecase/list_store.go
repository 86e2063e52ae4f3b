package usecase

import (
	"sort"
	"sync"
	"time"

	"talentlink/internal/domain/entity"
)

// ConversationPatch is a shallow field merge applied to a stored entity. Nil
// fields are left untouched.
type ConversationPatch struct {
	LastMessageAt *time.Time
	UpdatedAt     *time.Time
	LastMessage   *entity.MessageSnapshot
	UnreadCount   *int
}

// ConversationListStore owns the authoritative, deduplicated, sorted list of
// conversations for one user session. Ordering is total: sort key descending,
// ties broken by id descending, so repeated merges always reproduce the same
// order. All operations are synchronous and in-memory; they cannot fail.
// Errors belong to the network boundary, not here.
type ConversationListStore struct {
	mu    sync.Mutex
	items []*entity.Conversation
}

func NewConversationListStore() *ConversationListStore {
	return &ConversationListStore{}
}

// ReplaceAll installs an authoritative list, used after a forced root-page
// fetch. The input is assumed normalized and unsorted.
func (s *ConversationListStore) ReplaceAll(list []*entity.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make([]*entity.Conversation, len(list))
	copy(s.items, list)
	s.sortLocked()
}

// MergeAppend overlays an incoming page onto the current list: a key map is
// seeded with the existing entities, incoming entries win on id collision, and
// the union is re-sorted. Merging the same page twice is a no-op.
func (s *ConversationListStore) MergeAppend(incoming []*entity.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]*entity.Conversation, len(s.items)+len(incoming))
	order := make([]string, 0, len(s.items)+len(incoming))
	for _, c := range s.items {
		if _, seen := byID[c.ID]; !seen {
			order = append(order, c.ID)
		}
		byID[c.ID] = c
	}
	for _, c := range incoming {
		if _, seen := byID[c.ID]; !seen {
			order = append(order, c.ID)
		}
		byID[c.ID] = c
	}

	s.items = s.items[:0]
	for _, id := range order {
		s.items = append(s.items, byID[id])
	}
	s.sortLocked()
}

// Patch shallow-merges fields onto the entity with the given id and re-sorts.
// It is used by realtime change signals to cheaply update lastMessageAt and
// updatedAt before the authoritative refresh lands. Returns false for unknown
// ids.
func (s *ConversationListStore) Patch(id string, patch ConversationPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.getLocked(id)
	if conv == nil {
		return false
	}
	if patch.LastMessageAt != nil {
		conv.LastMessageAt = patch.LastMessageAt
	}
	if patch.UpdatedAt != nil {
		conv.UpdatedAt = *patch.UpdatedAt
	}
	if patch.LastMessage != nil {
		conv.LastMessage = patch.LastMessage
	}
	if patch.UnreadCount != nil {
		conv.UnreadCount = *patch.UnreadCount
	}
	s.sortLocked()
	return true
}

// MarkRead resets the unread count to zero.
func (s *ConversationListStore) MarkRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv := s.getLocked(id); conv != nil {
		conv.UnreadCount = 0
	}
}

// UpsertFromEvent applies a message event to a known conversation: the last
// message snapshot and timestamp are updated and the entity moves to the front
// of the ordering. Only inbound events on a non-active conversation increment
// the unread count; outbound events never do. Returns false when the
// conversation is unknown.
func (s *ConversationListStore) UpsertFromEvent(evt entity.MessageEvent, activeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.getLocked(evt.ConversationID)
	if conv == nil || evt.Message == nil {
		return conv != nil
	}

	sentAt := evt.Message.CreatedAt
	conv.LastMessage = evt.Message.Snapshot()
	conv.LastMessageAt = &sentAt
	conv.UpdatedAt = sentAt
	conv.IsPending = false

	if evt.Type == entity.MessageEventReceived && evt.ConversationID != activeID {
		conv.UnreadCount++
	}

	s.moveToFrontLocked(conv.ID)
	return true
}

// InstallFront inserts the entity at the front of the list, replacing any
// stale entry with the same id.
func (s *ConversationListStore) InstallFront(conv *entity.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(conv.ID)
	s.items = append([]*entity.Conversation{conv}, s.items...)
}

// Remove deletes the entity with the given id, if present.
func (s *ConversationListStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

// Get returns the stored entity with the given id, or nil.
func (s *ConversationListStore) Get(id string) *entity.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

// FindByParticipants returns the conversation between the two identities,
// checked in both slot orders, or nil.
func (s *ConversationListStore) FindByParticipants(userA, userB string) *entity.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.items {
		if c.HasParticipants(userA, userB) {
			return c
		}
	}
	return nil
}

// Snapshot returns the current ordering.
func (s *ConversationListStore) Snapshot() []*entity.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*entity.Conversation, len(s.items))
	copy(out, s.items)
	return out
}

func (s *ConversationListStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *ConversationListStore) getLocked(id string) *entity.Conversation {
	for _, c := range s.items {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *ConversationListStore) removeLocked(id string) {
	for i, c := range s.items {
		if c.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

func (s *ConversationListStore) moveToFrontLocked(id string) {
	for i, c := range s.items {
		if c.ID == id {
			copy(s.items[1:i+1], s.items[:i])
			s.items[0] = c
			return
		}
	}
}

func (s *ConversationListStore) sortLocked() {
	sort.SliceStable(s.items, func(i, j int) bool {
		ki, kj := s.items[i].SortKey(), s.items[j].SortKey()
		if !ki.Equal(kj) {
			return ki.After(kj)
		}
		return s.items[i].ID > s.items[j].ID
	})
}
