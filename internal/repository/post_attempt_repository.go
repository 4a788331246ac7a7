package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/maheshrc27/autoposter/internal/models"
)

type PostAttemptRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, a *models.PostAttempt) (int64, error)
	ListByCampaignID(ctx context.Context, campaignID int64, limit int) ([]*models.PostAttempt, error)
}

type postAttemptRepository struct {
	db *sqlx.DB
}

func NewPostAttemptRepository(db *sqlx.DB) PostAttemptRepository {
	return &postAttemptRepository{db: db}
}

func (r *postAttemptRepository) Create(ctx context.Context, tx *sqlx.Tx, a *models.PostAttempt) (int64, error) {
	query := `
		INSERT INTO post_attempts (
			campaign_id, user_id, platform, attempt, success,
			platform_post_id, error_message, content, engagement, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	args := []interface{}{
		a.CampaignID,
		a.UserID,
		a.Platform,
		a.Attempt,
		a.Success,
		a.PlatformPostID,
		a.ErrorMessage,
		a.Content,
		a.Engagement,
		a.CreatedAt,
	}

	var (
		id  int64
		err error
	)
	if tx != nil {
		err = tx.GetContext(ctx, &id, query, args...)
	} else {
		err = r.db.GetContext(ctx, &id, query, args...)
	}
	if err != nil {
		return 0, fmt.Errorf("insert post attempt: %w", err)
	}

	a.ID = id
	return id, nil
}

func (r *postAttemptRepository) ListByCampaignID(ctx context.Context, campaignID int64, limit int) ([]*models.PostAttempt, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, campaign_id, user_id, platform, attempt, success,
			platform_post_id, error_message, content, engagement, created_at
		FROM post_attempts
		WHERE campaign_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	var attempts []*models.PostAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, campaignID, limit); err != nil {
		return nil, fmt.Errorf("list post attempts: %w", err)
	}
	return attempts, nil
}
