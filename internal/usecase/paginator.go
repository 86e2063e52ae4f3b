package usecase

import (
	"sync"

	"talentlink/internal/domain/entity"
)

// CursorPaginator tracks the stable (last-message-timestamp, conversation-id)
// watermark for "load more" requests. The cursor only advances toward older
// items; a forced root reload resets it, discarding pagination progress.
type CursorPaginator struct {
	mu      sync.Mutex
	cursor  *entity.Cursor
	hasMore bool
	loading bool
}

func NewCursorPaginator() *CursorPaginator {
	return &CursorPaginator{hasMore: true}
}

// Cursor returns a copy of the current watermark, or nil when starting from
// the newest page.
func (p *CursorPaginator) Cursor() *entity.Cursor {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cursor == nil {
		return nil
	}
	c := *p.cursor
	return &c
}

func (p *CursorPaginator) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

// BeginLoad acquires the single-flight guard for a "load more" request. It
// returns false while another load is in flight or when no more pages exist,
// making the call a no-op.
func (p *CursorPaginator) BeginLoad() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loading || !p.hasMore {
		return false
	}
	p.loading = true
	return true
}

func (p *CursorPaginator) EndLoad() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
}

// Advance derives the next cursor from the last row of the fetched page and
// recomputes hasMore from the per-row has_more echo (the boundary has no
// separate count endpoint). An empty page means the end was reached.
func (p *CursorPaginator) Advance(page []entity.ConversationRow) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(page) == 0 {
		p.hasMore = false
		return
	}

	last := page[len(page)-1]
	key := last.SortKey()
	p.cursor = &entity.Cursor{
		LastMessageAt:  &key,
		ConversationID: last.ID,
	}

	p.hasMore = false
	for _, row := range page {
		if row.HasMore {
			p.hasMore = true
			break
		}
	}
}

// Reset discards pagination progress; the next load starts from the newest
// page again.
func (p *CursorPaginator) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor = nil
	p.hasMore = true
}
