package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	config "github.com/maheshrc27/autoposter/configs"
	"github.com/maheshrc27/autoposter/internal/formatter"
	"github.com/maheshrc27/autoposter/internal/platform"
	"github.com/maheshrc27/autoposter/internal/repository"
	"github.com/maheshrc27/autoposter/internal/service"
	"github.com/maheshrc27/autoposter/pkg/logger"
	"github.com/maheshrc27/autoposter/pkg/utils"
)

// application holds everything the commands share.
type application struct {
	db           *sqlx.DB
	redis        *redis.Client
	campaignRepo repository.CampaignRepository
	accountRepo  repository.SocialAccountRepository
	registry     *platform.Registry

	posting     service.PostingService
	campaigns   service.CampaignService
	credentials service.CredentialService
	media       service.MediaService
	threads     service.ThreadsService
}

func build(ctx context.Context, cfg config.Config, log *logger.Logger) (*application, error) {
	db, err := connectDB(ctx, cfg.PostgresURI)
	if err != nil {
		return nil, err
	}
	app := &application{db: db}

	cipher, err := utils.NewTokenCipher(cfg.SecretKey)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("token cipher: %w", err)
	}

	ledger, err := app.mentionLedger(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	attemptRepo := repository.NewPostAttemptRepository(db)
	app.campaignRepo = repository.NewCampaignRepository(db, attemptRepo)
	app.accountRepo = repository.NewSocialAccountRepository(db)

	app.media, err = service.NewMediaService(ctx, cfg.R2)
	if err != nil {
		app.Close()
		return nil, err
	}

	publisher := platform.NewDryRunPublisher(log.WithComponent("publisher").Logger, cfg.Posting.FailureRate)
	app.registry = platform.NewDefaultRegistry(publisher)

	selector := formatter.NewMentionSelector(formatter.DefaultDirectory(), ledger)

	app.credentials = service.NewCredentialService(app.accountRepo, cipher, log)
	app.campaigns = service.NewCampaignService(app.campaignRepo, attemptRepo, nil, log)
	app.threads = service.NewThreadsService(selector)
	app.posting = service.NewPostingService(
		app.campaignRepo,
		app.credentials,
		app.media,
		selector,
		app.registry,
		service.PostingOptions{
			MaxAttempts:    cfg.Posting.MaxAttempts,
			RetryBackoff:   cfg.Posting.RetryBackoff,
			AdapterTimeout: cfg.Posting.AdapterTimeout,
		},
		log,
	)
	return app, nil
}

func (a *application) mentionLedger(ctx context.Context, cfg config.Config) (formatter.MentionLedger, error) {
	m := cfg.Mentions
	switch m.Backend {
	case "", "memory":
		return formatter.NewMemoryLedger(m.MaxEntries, formatter.DefaultRetention), nil
	case "redis":
		client, err := formatter.Connect(ctx, cfg.RedisURI)
		if err != nil {
			return nil, fmt.Errorf("connect mention ledger: %w", err)
		}
		a.redis = client
		return formatter.NewRedisLedger(client, m.KeyPrefix, formatter.DefaultRetention), nil
	default:
		return nil, fmt.Errorf("unknown mention ledger backend %q", m.Backend)
	}
}

func (a *application) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

func connectDB(ctx context.Context, uri string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func redisOpt(uri string) (asynq.RedisConnOpt, error) {
	if strings.HasPrefix(uri, "redis://") || strings.HasPrefix(uri, "rediss://") {
		opt, err := asynq.ParseRedisURI(uri)
		if err != nil {
			return nil, fmt.Errorf("parse redis uri: %w", err)
		}
		return opt, nil
	}
	return asynq.RedisClientOpt{Addr: uri}, nil
}
