package services

import (
	"context"
	"database/sql"
)

// VoteServiceProvider defines the interface for vote services.
type VoteServiceProvider interface {
	Create(ctx context.Context, userID, postID int64) error
	Remove(ctx context.Context, userID, postID int64) error
}

// VoteService provides business logic for votes on posts.
type VoteService struct {
	db *sql.DB
}

// NewVoteService creates a new VoteService.
func NewVoteService(db *sql.DB) *VoteService {
	return &VoteService{db: db}
}

// Create records a vote. Uniqueness rides on the (user_id, post_id) primary
// key instead of a check-then-insert, so concurrent duplicates lose at the
// constraint; the foreign key likewise rejects votes on missing posts.
func (s *VoteService) Create(ctx context.Context, userID, postID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO votes (user_id, post_id) VALUES (?, ?)", userID, postID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateVote
		}
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Remove deletes a vote; removing a vote that does not exist is an error.
func (s *VoteService) Remove(ctx context.Context, userID, postID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM votes WHERE user_id = ? AND post_id = ?", userID, postID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
