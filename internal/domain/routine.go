package domain

import "time"

// RoutineLog records which blocks of a routine were completed on a date.
// (RoutineID, Date) is the natural key.
type RoutineLog struct {
	RoutineID       string    `json:"routine_id"`
	UserID          string    `json:"-"`
	Date            string    `json:"date"`
	CompletedBlocks []string  `json:"completed_blocks"`
	Notes           string    `json:"notes,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// JournalEntry is a finalized journal page. (UserID, Date) is the natural key.
type JournalEntry struct {
	UserID    string    `json:"-"`
	Date      string    `json:"date"`
	Content   string    `json:"content"`
	Mood      string    `json:"mood,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
