package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/maheshrc27/autoposter/internal/models"
)

type SocialAccountRepository interface {
	Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error)
	GetActive(ctx context.Context, userID int64, platform string) (*models.SocialAccount, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	Remove(ctx context.Context, userID, id int64) error
	ListExpiring(ctx context.Context, from, to time.Time) ([]*models.SocialAccount, error)
}

type socialAccountRepository struct {
	db *sqlx.DB
}

func NewSocialAccountRepository(db *sqlx.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const socialAccountColumns = `
	id, user_id, platform, account_id, account_name, account_username,
	access_token, refresh_token, token_expires_at, account_status,
	created_at, updated_at`

// Upsert stores a connection, replacing tokens when the same account is connected again.
func (r *socialAccountRepository) Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	query := `
		INSERT INTO social_accounts (
			user_id, platform, account_id, account_name, account_username,
			access_token, refresh_token, token_expires_at, account_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, platform, account_id) DO UPDATE SET
			account_name = EXCLUDED.account_name,
			account_username = EXCLUDED.account_username,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			account_status = EXCLUDED.account_status,
			updated_at = NOW()
		RETURNING id`

	var id int64
	err := r.db.GetContext(ctx, &id, query,
		sa.UserID,
		sa.Platform,
		sa.AccountID,
		sa.AccountName,
		sa.AccountUsername,
		sa.AccessToken,
		sa.RefreshToken,
		sa.TokenExpiresAt,
		sa.AccountStatus,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert social account: %w", err)
	}
	return id, nil
}

// GetActive returns the most recently updated active connection for a platform.
func (r *socialAccountRepository) GetActive(ctx context.Context, userID int64, platform string) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + `
		FROM social_accounts
		WHERE user_id = $1 AND platform = $2 AND account_status = 'active'
		ORDER BY updated_at DESC
		LIMIT 1`

	var sa models.SocialAccount
	if err := r.db.GetContext(ctx, &sa, query, userID, platform); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get social account: %w", err)
	}
	return &sa, nil
}

func (r *socialAccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + `
		FROM social_accounts
		WHERE user_id = $1
		ORDER BY platform, created_at`

	var accounts []*models.SocialAccount
	if err := r.db.SelectContext(ctx, &accounts, query, userID); err != nil {
		return nil, fmt.Errorf("list social accounts: %w", err)
	}
	return accounts, nil
}

func (r *socialAccountRepository) Remove(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM social_accounts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("remove social account: %w", err)
	}
	return expectOneRow(res)
}

// ListExpiring returns active accounts whose token expires in [from, to).
func (r *socialAccountRepository) ListExpiring(ctx context.Context, from, to time.Time) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + `
		FROM social_accounts
		WHERE account_status = 'active'
			AND token_expires_at >= $1
			AND token_expires_at < $2
		ORDER BY token_expires_at`

	var accounts []*models.SocialAccount
	if err := r.db.SelectContext(ctx, &accounts, query, from, to); err != nil {
		return nil, fmt.Errorf("list expiring social accounts: %w", err)
	}
	return accounts, nil
}
