// Package models defines the client-side records jotkeeper keeps in the
// local cache and mirrors to the remote store: notes, categories, quick
// actions, and the per-user settings document.
package models

import (
	"strings"
	"time"
)

// GeneralCategoryID is the reserved category every user always has. It can
// never be deleted; records of a deleted category are reassigned to it.
const GeneralCategoryID = "general"

// GeneralCategoryName is the display name of the reserved category.
const GeneralCategoryName = "General"

// NowMillis returns the current time in milliseconds since the epoch, the
// resolution used by all conflict-resolution clocks.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Note is a short text note. Timestamp is the note's effective time, not its
// creation time: every edit refreshes it, and it doubles as the
// last-write-wins clock during reconciliation. DeletedAt of zero means the
// note is live; non-zero marks a tombstone awaiting remote propagation.
type Note struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	CategoryID string `json:"categoryId"`
	Timestamp  int64  `json:"timestamp"`
	DeletedAt  int64  `json:"deletedAt,omitempty"`
}

// Deleted reports whether the note is a tombstone.
func (n Note) Deleted() bool { return n.DeletedAt != 0 }

// Category groups notes and quick actions. Names are unique per user,
// case-insensitively.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// QuickAction is a reusable canned-text template. CategoryID is an advisory
// association and is not enforced against the category set. Timestamp and
// DeletedAt carry the same clock and tombstone semantics as Note.
type QuickAction struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	CategoryID string `json:"categoryId,omitempty"`
	Timestamp  int64  `json:"timestamp"`
	DeletedAt  int64  `json:"deletedAt,omitempty"`
}

// Deleted reports whether the quick action is a tombstone.
func (q QuickAction) Deleted() bool { return q.DeletedAt != 0 }

// Settings is the single per-user settings record. LastUpdated is its own
// conflict-resolution clock.
type Settings struct {
	DisplayName string `json:"displayName"`
	Subtitle    string `json:"subtitle"`
	Theme       string `json:"theme"`
	DarkMode    bool   `json:"darkMode"`
	LastUpdated int64  `json:"lastUpdated"`
}

// SameName reports whether two category names collide under the per-user,
// case-insensitive uniqueness rule.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// DefaultCategories returns the initial category set for a fresh profile.
func DefaultCategories() []Category {
	return []Category{{ID: GeneralCategoryID, Name: GeneralCategoryName}}
}
