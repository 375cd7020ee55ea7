package models

import "time"

type AdStatus string

const (
	StatusPending  AdStatus = "pending"
	StatusApproved AdStatus = "approved"
	// StatusRejected is terminal and equivalent to deletion: the row is
	// removed after the owner is notified, no audit record is kept.
	StatusRejected AdStatus = "rejected"
)

type Category string

const (
	CategoryFood Category = "food"
	CategoryItem Category = "item"
)

// User is a Telegram account known to the bot. Created on first
// interaction, updated whenever contact info is (re)confirmed.
type User struct {
	TelegramID int64
	Username   string // public handle, may be empty
	Phone      string // verified contact; presence gates ad submission
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// Verified reports whether the user has shared a phone number.
func (u User) Verified() bool {
	return u.Phone != ""
}

// Ad is a single classified listing.
type Ad struct {
	ID          int64
	OwnerID     int64
	Category    Category
	PhotoID     string // opaque Telegram file ID
	Price       string // free-form, ranges like "100-200" allowed
	Description string
	Dorm        int    // coarse zone: dormitory number
	Spot        string // free-text pickup detail
	Status      AdStatus
	Views       int64
	CreatedAt   time.Time
}
