package services

import (
	"context"
	"database/sql"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/arenz/postboard/internal/models"
)

// PostFilter narrows down post listings. A zero Limit means the default of 10.
type PostFilter struct {
	Search string
	Limit  int
	Skip   int
}

const defaultListLimit = 10

// PostServiceProvider defines the interface for post services.
type PostServiceProvider interface {
	List(ctx context.Context, filter PostFilter) ([]models.PostWithVotes, error)
	Get(ctx context.Context, id int64) (models.PostWithVotes, error)
	Create(ctx context.Context, ownerID int64, title, content string, published bool) (models.Post, error)
	Update(ctx context.Context, id, callerID int64, title, content string, published bool) (models.Post, error)
	Delete(ctx context.Context, id, callerID int64) error
}

// PostService provides business logic for posts and their derived vote counts.
type PostService struct {
	db *sql.DB
}

// NewPostService creates a new PostService.
func NewPostService(db *sql.DB) *PostService {
	return &PostService{db: db}
}

// Vote counts are derived, never stored: posts are left-joined against votes
// so a post with no votes still appears with a count of zero. The owner is
// fetched in the same query; nothing is loaded lazily per row.
const postWithVotesQuery = `
SELECT p.id, p.title, p.content, p.published, p.created_at, p.owner_id,
       u.email, u.created_at, COUNT(v.post_id)
FROM posts p
JOIN users u ON u.id = p.owner_id
LEFT JOIN votes v ON v.post_id = p.id`

// List returns posts joined with their vote counts, optionally filtered by a
// title substring and paginated with limit/skip.
func (s *PostService) List(ctx context.Context, filter PostFilter) ([]models.PostWithVotes, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, postWithVotesQuery+`
WHERE p.title LIKE '%' || ? || '%'
GROUP BY p.id
ORDER BY p.id
LIMIT ? OFFSET ?`, filter.Search, limit, filter.Skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []models.PostWithVotes{}
	for rows.Next() {
		entry, err := scanPostWithVotes(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, entry)
	}
	return posts, rows.Err()
}

// Get returns a single post with its vote count.
func (s *PostService) Get(ctx context.Context, id int64) (models.PostWithVotes, error) {
	row := s.db.QueryRowContext(ctx, postWithVotesQuery+`
WHERE p.id = ?
GROUP BY p.id`, id)
	entry, err := scanPostWithVotes(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PostWithVotes{}, ErrNotFound
		}
		return models.PostWithVotes{}, err
	}
	return entry, nil
}

// Create stores a new post owned by ownerID.
func (s *PostService) Create(ctx context.Context, ownerID int64, title, content string, published bool) (models.Post, error) {
	if err := validatePost(title, content); err != nil {
		return models.Post{}, err
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO posts (title, content, published, created_at, owner_id) VALUES (?, ?, ?, ?, ?)",
		title, content, published, time.Now().Unix(), ownerID)
	if err != nil {
		return models.Post{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Post{}, err
	}

	created, err := s.Get(ctx, id)
	if err != nil {
		return models.Post{}, err
	}
	return created.Post, nil
}

// Update replaces a post's title, content and published flag. Only the owner
// may update; the existence and ownership checks share one transaction with
// the write so a concurrent delete cannot slip in between.
func (s *PostService) Update(ctx context.Context, id, callerID int64, title, content string, published bool) (models.Post, error) {
	if err := validatePost(title, content); err != nil {
		return models.Post{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Post{}, err
	}
	defer tx.Rollback()

	if err := checkOwnership(ctx, tx, id, callerID); err != nil {
		return models.Post{}, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE posts SET title = ?, content = ?, published = ? WHERE id = ?",
		title, content, published, id); err != nil {
		return models.Post{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Post{}, err
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return models.Post{}, err
	}
	return updated.Post, nil
}

// Delete removes a post. Only the owner may delete.
func (s *PostService) Delete(ctx context.Context, id, callerID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := checkOwnership(ctx, tx, id, callerID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

func checkOwnership(ctx context.Context, tx *sql.Tx, postID, callerID int64) error {
	var ownerID int64
	if err := tx.QueryRowContext(ctx, "SELECT owner_id FROM posts WHERE id = ?", postID).Scan(&ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if ownerID != callerID {
		return ErrForbidden
	}
	return nil
}

func validatePost(title, content string) error {
	if title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	// Limits are in characters, not bytes.
	if utf8.RuneCountInString(title) > models.MaxTitleLen {
		return &ValidationError{Field: "title", Reason: "must be at most 100 characters"}
	}
	if content == "" {
		return &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(content) > models.MaxContentLen {
		return &ValidationError{Field: "content", Reason: "must be at most 10000 characters"}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostWithVotes(row rowScanner) (models.PostWithVotes, error) {
	var (
		entry          models.PostWithVotes
		owner          models.User
		postCreatedAt  int64
		ownerCreatedAt int64
	)
	err := row.Scan(&entry.Post.ID, &entry.Post.Title, &entry.Post.Content,
		&entry.Post.Published, &postCreatedAt, &entry.Post.OwnerID,
		&owner.Email, &ownerCreatedAt, &entry.Votes)
	if err != nil {
		return models.PostWithVotes{}, err
	}
	entry.Post.CreatedAt = time.Unix(postCreatedAt, 0)
	owner.ID = entry.Post.OwnerID
	owner.CreatedAt = time.Unix(ownerCreatedAt, 0)
	entry.Post.Owner = &owner
	return entry, nil
}
