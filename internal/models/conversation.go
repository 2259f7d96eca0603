package models

import "time"

// PlaceholderTitle is the title a conversation carries before its first
// completed turn. TouchConversation only sets a generated title while the
// current title is this value or empty.
const PlaceholderTitle = "New Conversation"

// Conversation is a titled, provider-bound thread of messages. Provider and
// model are fixed at creation; UpdatedAt moves forward whenever a turn
// appends to the thread.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasGeneratedTitle reports whether the conversation already carries a real
// title, i.e. one set by a completed turn or an explicit rename.
func (c *Conversation) HasGeneratedTitle() bool {
	return c.Title != "" && c.Title != PlaceholderTitle
}
