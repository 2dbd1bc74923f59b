package memo

import (
	"sort"
	"time"
)

// PlaceholderID marks a draft that has never been saved. It is never sent to the store.
const PlaceholderID = "temp-id"

// Memo is a single note. The JSON shape is the persisted collection format.
type Memo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsPlaceholder reports whether m is an unsaved draft.
func (m Memo) IsPlaceholder() bool { return m.ID == PlaceholderID }

// NewPlaceholder returns an empty draft stamped with now.
func NewPlaceholder(now time.Time) Memo {
	return Memo{ID: PlaceholderID, CreatedAt: now, UpdatedAt: now}
}

// Fields is a partial update. Nil fields are left unchanged.
type Fields struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Apply merges f into m and returns the result.
func (f Fields) Apply(m Memo) Memo {
	if f.Title != nil {
		m.Title = *f.Title
	}
	if f.Content != nil {
		m.Content = *f.Content
	}
	return m
}

// SortByRecency orders memos by UpdatedAt, newest first.
func SortByRecency(memos []Memo) {
	sort.SliceStable(memos, func(i, j int) bool {
		return memos[i].UpdatedAt.After(memos[j].UpdatedAt)
	})
}
