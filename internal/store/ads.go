package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dormmarket/market-bot/internal/models"
)

// AdRepository handles persistence for ads and the has-seen relation
// backing the view counter.
type AdRepository struct {
	db *sql.DB
}

func NewAdRepository(db *sql.DB) *AdRepository {
	return &AdRepository{db: db}
}

func (r *AdRepository) Create(ctx context.Context, ad models.Ad) (models.Ad, error) {
	ad.CreatedAt = time.Now()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO ads (owner_id, category, photo_id, price, description, dorm, spot, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ad.OwnerID, ad.Category, ad.PhotoID, ad.Price, ad.Description,
		ad.Dorm, ad.Spot, ad.Status, ad.CreatedAt,
	)
	if err != nil {
		return models.Ad{}, err
	}
	ad.ID, err = result.LastInsertId()
	if err != nil {
		return models.Ad{}, err
	}
	return ad, nil
}

func (r *AdRepository) GetByID(ctx context.Context, id int64) (models.Ad, error) {
	var ad models.Ad
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, category, photo_id, price, description, dorm, spot, status, views, created_at
		 FROM ads WHERE id = ?`, id,
	).Scan(
		&ad.ID, &ad.OwnerID, &ad.Category, &ad.PhotoID, &ad.Price,
		&ad.Description, &ad.Dorm, &ad.Spot, &ad.Status, &ad.Views, &ad.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Ad{}, ErrNotFound
		}
		return models.Ad{}, err
	}
	return ad, nil
}

// ListApproved returns the live feed for a category, newest first. Ties on
// the timestamp break by id descending, which is stable because ids are
// monotonic.
func (r *AdRepository) ListApproved(ctx context.Context, category models.Category) ([]models.Ad, error) {
	return r.list(ctx,
		`SELECT id, owner_id, category, photo_id, price, description, dorm, spot, status, views, created_at
		 FROM ads WHERE status = ? AND category = ?
		 ORDER BY created_at DESC, id DESC`,
		models.StatusApproved, category,
	)
}

// ListPending returns the moderation queue, oldest first.
func (r *AdRepository) ListPending(ctx context.Context) ([]models.Ad, error) {
	return r.list(ctx,
		`SELECT id, owner_id, category, photo_id, price, description, dorm, spot, status, views, created_at
		 FROM ads WHERE status = ?
		 ORDER BY created_at ASC, id ASC`,
		models.StatusPending,
	)
}

// ListByOwner returns all of a user's ads, newest first.
func (r *AdRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Ad, error) {
	return r.list(ctx,
		`SELECT id, owner_id, category, photo_id, price, description, dorm, spot, status, views, created_at
		 FROM ads WHERE owner_id = ?
		 ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
}

func (r *AdRepository) list(ctx context.Context, query string, args ...any) ([]models.Ad, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ads []models.Ad
	for rows.Next() {
		var ad models.Ad
		err := rows.Scan(
			&ad.ID, &ad.OwnerID, &ad.Category, &ad.PhotoID, &ad.Price,
			&ad.Description, &ad.Dorm, &ad.Spot, &ad.Status, &ad.Views, &ad.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		ads = append(ads, ad)
	}
	return ads, rows.Err()
}

// Approve moves a pending ad into the feed. The pending guard makes the
// transition terminal: an ad already approved or removed reports ErrNotFound.
func (r *AdRepository) Approve(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE ads SET status = ? WHERE id = ? AND status = ?`,
		models.StatusApproved, id, models.StatusPending,
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

// Reject removes a pending ad. Rejection is equivalent to deletion; no
// record is retained.
func (r *AdRepository) Reject(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM ads WHERE id = ? AND status = ?`,
		id, models.StatusPending,
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

// Delete removes an ad. A zero ownerID skips the ownership check (admin).
func (r *AdRepository) Delete(ctx context.Context, id int64, ownerID int64) error {
	query := `DELETE FROM ads WHERE id = ?`
	args := []any{id}
	if ownerID != 0 {
		query += ` AND owner_id = ?`
		args = append(args, ownerID)
	}
	result, err := r.db.ExecContext(ctx, query, args...)
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

// MarkViewed records that viewer has seen the ad and bumps the view counter
// on the first sighting only. Returns whether this was the first time.
func (r *AdRepository) MarkViewed(ctx context.Context, adID, viewerID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO ad_views (ad_id, viewer_id) VALUES (?, ?)`,
		adID, viewerID,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}
	_, err = r.db.ExecContext(ctx, `UPDATE ads SET views = views + 1 WHERE id = ?`, adID)
	return true, err
}
