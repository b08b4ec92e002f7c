package services

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"
	"time"

	"github.com/arenz/postboard/internal/auth"
	"github.com/arenz/postboard/internal/models"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Create(ctx context.Context, email, password string) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
}

// UserService provides business logic for user accounts.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// Create registers a new user, hashing their password. The email must be
// well-formed and not taken.
func (s *UserService) Create(ctx context.Context, email, password string) (models.User, error) {
	if err := validateEmail(email); err != nil {
		return models.User{}, err
	}
	if password == "" {
		return models.User{}, &ValidationError{Field: "password", Reason: "must not be empty"}
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		// bcrypt rejects passwords over 72 bytes
		return models.User{}, &ValidationError{Field: "password", Reason: err.Error()}
	}

	now := time.Now()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?)",
		email, hashed, now.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}

	return models.User{ID: id, Email: email, CreatedAt: time.Unix(now.Unix(), 0)}, nil
}

// GetByID retrieves a single user by their ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (models.User, error) {
	var (
		user      models.User
		createdAt int64
	)
	row := s.db.QueryRowContext(ctx, "SELECT id, email, created_at FROM users WHERE id = ?", id)
	if err := row.Scan(&user.ID, &user.Email, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	user.CreatedAt = time.Unix(createdAt, 0)
	return user, nil
}

// Authenticate verifies a credential pair. Unknown email and wrong password
// produce the same error so the response cannot confirm either half.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	var (
		user      models.User
		createdAt int64
	)
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, created_at FROM users WHERE email = ?", email)
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return models.User{}, ErrInvalidCredentials
	}

	user.CreatedAt = time.Unix(createdAt, 0)
	user.PasswordHash = ""
	return user, nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	return nil
}
