package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dormmarket/market-bot/internal/models"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Touch creates the user on first contact or refreshes the handle and
// last-seen timestamp on every subsequent event.
func (r *UserRepository) Touch(ctx context.Context, telegramID int64, username string) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (telegram_id, username, created_at, last_seen_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(telegram_id) DO UPDATE SET username = excluded.username, last_seen_at = excluded.last_seen_at`,
		telegramID, username, now, now,
	)
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, telegramID int64) (models.User, error) {
	var user models.User
	err := r.db.QueryRowContext(ctx,
		`SELECT telegram_id, username, phone, created_at, last_seen_at
		 FROM users WHERE telegram_id = ?`, telegramID,
	).Scan(&user.TelegramID, &user.Username, &user.Phone, &user.CreatedAt, &user.LastSeenAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// SetPhone records a verified contact for the user.
func (r *UserRepository) SetPhone(ctx context.Context, telegramID int64, phone string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET phone = ?, last_seen_at = ? WHERE telegram_id = ?`,
		phone, time.Now(), telegramID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListIDs returns every known user ID, for broadcast delivery.
func (r *UserRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT telegram_id FROM users ORDER BY telegram_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
