package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteUserRepo implements UserRepo on a SQLite database.
type SQLiteUserRepo struct {
	db *sql.DB
}

// NewSQLiteUserRepo creates a new SQLiteUserRepo.
func NewSQLiteUserRepo(db *sql.DB) *SQLiteUserRepo {
	return &SQLiteUserRepo{db: db}
}

func (r *SQLiteUserRepo) Create(ctx context.Context, u *User) error {
	var exists int
	check := `SELECT COUNT(*) FROM users WHERE user_id = ?`
	if err := r.db.QueryRowContext(ctx, check, u.UserID).Scan(&exists); err != nil {
		return fmt.Errorf("checking user id: %w", err)
	}
	if exists > 0 {
		return ErrDuplicateUser
	}

	query := `INSERT INTO users (user_id, name, password_hash, email, gender, birth_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		u.UserID,
		u.Name,
		u.PasswordHash,
		u.Email,
		u.Gender,
		u.BirthDate,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *SQLiteUserRepo) GetByID(ctx context.Context, userID string) (*User, error) {
	query := `SELECT user_id, name, password_hash, email, gender, birth_date
		FROM users WHERE user_id = ?`
	row := r.db.QueryRowContext(ctx, query, userID)

	u := &User{}
	var gender, birthDate sql.NullString
	err := row.Scan(&u.UserID, &u.Name, &u.PasswordHash, &u.Email, &gender, &birthDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading user: %w", err)
	}
	u.Gender = gender.String
	u.BirthDate = birthDate.String
	return u, nil
}
