package models

import "time"

// Limits enforced on post fields at creation and update.
const (
	MaxTitleLen   = 100
	MaxContentLen = 10000
)

// Post represents a blog post. Owner is filled by an explicit join at the
// query boundary, never lazily.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	OwnerID   int64     `json:"owner_id"`
	Owner     *User     `json:"owner,omitempty"`
}

// PostWithVotes is the read projection for listings: the post joined with its
// derived vote count. Posts with no votes carry a count of zero.
type PostWithVotes struct {
	Post  Post `json:"post"`
	Votes int  `json:"votes"`
}
