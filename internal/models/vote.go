package models

// Vote marks that a user has voted on a post. Its existence is the whole
// payload; the (UserID, PostID) pair is the primary key.
type Vote struct {
	UserID int64 `json:"user_id"`
	PostID int64 `json:"post_id"`
}
