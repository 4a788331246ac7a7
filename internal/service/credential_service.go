package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/oauth2"

	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/internal/platform"
	"github.com/maheshrc27/autoposter/internal/repository"
	"github.com/maheshrc27/autoposter/internal/transfer"
	"github.com/maheshrc27/autoposter/pkg/logger"
	"github.com/maheshrc27/autoposter/pkg/utils"
)

// CredentialService manages connected accounts and hands decrypted tokens
// to the orchestrator.
type CredentialService interface {
	Connect(ctx context.Context, userID int64, req transfer.ConnectAccountRequest) (*models.SocialAccount, error)
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	Disconnect(ctx context.Context, userID, accountID int64) error
	Resolve(ctx context.Context, userID int64, platformName string) (platform.Credentials, error)
}

type credentialService struct {
	accounts repository.SocialAccountRepository
	cipher   *utils.TokenCipher
	clock    func() time.Time
	log      *logger.Logger
}

func NewCredentialService(accounts repository.SocialAccountRepository, cipher *utils.TokenCipher, log *logger.Logger) CredentialService {
	return &credentialService{
		accounts: accounts,
		cipher:   cipher,
		clock:    time.Now,
		log:      log.WithComponent("credentials"),
	}
}

func (s *credentialService) Connect(ctx context.Context, userID int64, req transfer.ConnectAccountRequest) (*models.SocialAccount, error) {
	platforms := make([]interface{}, len(models.SupportedPlatforms))
	for i, p := range models.SupportedPlatforms {
		platforms[i] = p
	}
	err := validation.ValidateStruct(&req,
		validation.Field(&req.Platform, validation.Required, validation.In(platforms...)),
		validation.Field(&req.AccountID, validation.Required),
		validation.Field(&req.AccessToken, validation.Required),
		validation.Field(&req.ExpiresIn, validation.Min(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}

	access, err := s.cipher.Encrypt(req.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("encrypt access token: %w", err)
	}
	refresh, err := s.cipher.Encrypt(req.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("encrypt refresh token: %w", err)
	}

	sa := &models.SocialAccount{
		UserID:          userID,
		Platform:        req.Platform,
		AccountID:       req.AccountID,
		AccountName:     req.AccountName,
		AccountUsername: req.AccountUsername,
		AccessToken:     access,
		RefreshToken:    refresh,
		TokenExpiresAt:  GetExpiresAt(s.clock(), req.ExpiresIn, req.ExpiresAt),
		AccountStatus:   models.AccountStatusActive,
	}

	id, err := s.accounts.Upsert(ctx, sa)
	if err != nil {
		return nil, fmt.Errorf("%w: save account: %v", ErrStore, err)
	}
	sa.ID = id

	s.log.Info().Int64("user_id", userID).Str("platform", sa.Platform).Str("account_id", sa.AccountID).Msg("account connected")
	return sa, nil
}

func (s *credentialService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	accounts, err := s.accounts.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list accounts: %v", ErrStore, err)
	}
	return accounts, nil
}

func (s *credentialService) Disconnect(ctx context.Context, userID, accountID int64) error {
	if err := s.accounts.Remove(ctx, userID, accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("%w: remove account: %v", ErrStore, err)
	}
	return nil
}

// Resolve returns the user's active credentials for a platform. Expired
// tokens are still returned; the adapter reports them as a failed post.
func (s *credentialService) Resolve(ctx context.Context, userID int64, platformName string) (platform.Credentials, error) {
	sa, err := s.accounts.GetActive(ctx, userID, platformName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return platform.Credentials{}, fmt.Errorf("%w for %s", ErrAccountNotFound, platformName)
		}
		return platform.Credentials{}, fmt.Errorf("%w: load account: %v", ErrStore, err)
	}

	access, err := s.cipher.Decrypt(sa.AccessToken)
	if err != nil {
		return platform.Credentials{}, fmt.Errorf("decrypt access token: %w", err)
	}
	refresh, err := s.cipher.Decrypt(sa.RefreshToken)
	if err != nil {
		return platform.Credentials{}, fmt.Errorf("decrypt refresh token: %w", err)
	}

	return platform.Credentials{
		AccountID: sa.AccountID,
		Token: &oauth2.Token{
			AccessToken:  access,
			RefreshToken: refresh,
			TokenType:    "Bearer",
			Expiry:       sa.TokenExpiresAt,
		},
	}, nil
}
