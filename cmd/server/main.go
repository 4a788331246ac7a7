package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	config "github.com/maheshrc27/autoposter/configs"
	"github.com/maheshrc27/autoposter/internal/api/handlers"
	"github.com/maheshrc27/autoposter/internal/api/middleware"
	job "github.com/maheshrc27/autoposter/internal/jobs"
	"github.com/maheshrc27/autoposter/internal/queue"
	"github.com/maheshrc27/autoposter/migrations"
	"github.com/maheshrc27/autoposter/pkg/logger"
)

var (
	cfg *config.Config
	log *logger.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "autoposter",
		Short:             "Campaign scheduling and multi-platform posting service",
		PersistentPreRunE: initializeApp,
		SilenceUsage:      true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initializeApp(cmd *cobra.Command, args []string) error {
	envErr := godotenv.Load()

	var err error
	cfg, err = config.LoadConfig(cmd.Context())
	if err != nil {
		return err
	}

	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file loaded")
	}
	return nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the queue worker and the due campaign poller",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <campaign-id>",
		Short: "Run one campaign now and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid campaign id %q", args[0])
			}

			app, err := build(cmd.Context(), *cfg, log)
			if err != nil {
				return err
			}
			defer app.Close()

			res, runErr := app.posting.Run(cmd.Context(), id)
			if res != nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			}
			return runErr
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connectDB(cmd.Context(), cfg.PostgresURI)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := migrations.Apply(cmd.Context(), db)
			if err != nil {
				return err
			}
			log.Info().Strs("files", applied).Msg("migrations applied")
			return nil
		},
	}
}

func serve(ctx context.Context) error {
	app, err := build(ctx, *cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	redisConn, err := redisOpt(cfg.RedisURI)
	if err != nil {
		return err
	}
	asynqClient := asynq.NewClient(redisConn)
	defer asynqClient.Close()
	queueClient := queue.NewClient(asynqClient)

	server := fiber.New(fiber.Config{
		ReadTimeout:  time.Minute,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	server.Use(fiberlogger.New())
	server.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	registerRoutes(server, app, queueClient)

	// worker
	worker := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: 10,
		Logger:      asynqLogger{log.WithComponent("asynq")},
	})
	queueW := queue.NewQueue(app.posting, log)
	if err := worker.Start(queueW.Mux()); err != nil {
		return fmt.Errorf("start asynq server: %w", err)
	}
	log.Info().Msg("queue worker started")

	// cron jobs
	c := cron.New(cron.WithLogger(job.CronLogger{Log: log.WithComponent("cron")}))
	dueJob := job.NewDueCampaignJob(app.campaignRepo, queueClient, log)
	if err := dueJob.Schedule(c, cfg.Posting.PollSpec); err != nil {
		return err
	}
	expiryJob := job.NewTokenExpiryJob(app.accountRepo, log)
	if _, err := c.AddJob("@every 1h", expiryJob); err != nil {
		return fmt.Errorf("schedule token expiry job: %w", err)
	}
	c.Start()
	log.Info().Str("cron", cfg.Posting.PollSpec).Msg("due campaign poller scheduled")

	go func() {
		if err := server.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("http server stopped")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down")
	<-c.Stop().Done()
	worker.Shutdown()
	if err := server.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	return nil
}

func registerRoutes(server *fiber.App, app *application, queueClient *queue.Client) {
	health := handlers.NewHealthHandler(app.db, app.registry.Names())
	server.Get("/healthz", health.Health)
	server.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authMiddleware := middleware.NewAuthMiddleware(*cfg, log)
	api := server.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	campaigns := handlers.NewCampaignHandler(app.campaigns)
	api.Get("/campaigns", campaigns.ListCampaigns)
	api.Post("/campaigns", campaigns.CreateCampaign)
	api.Get("/campaigns/:id", campaigns.GetCampaign)
	api.Put("/campaigns/:id", campaigns.UpdateCampaign)
	api.Delete("/campaigns/:id", campaigns.DeleteCampaign)
	api.Post("/campaigns/:id/start", campaigns.StartCampaign)
	api.Post("/campaigns/:id/pause", campaigns.PauseCampaign)
	api.Post("/campaigns/:id/stop", campaigns.StopCampaign)
	api.Put("/campaigns/:id/status", campaigns.UpdateStatus)
	api.Get("/campaigns/:id/schedule", campaigns.GetSchedule)
	api.Put("/campaigns/:id/schedule", campaigns.UpdateSchedule)
	api.Get("/campaigns/:id/should-post", campaigns.ShouldPost)
	api.Get("/campaigns/:id/attempts", campaigns.ListAttempts)

	run := handlers.NewRunHandler(app.campaigns, app.posting, queueClient)
	api.Post("/campaigns/:id/run", run.TriggerRun)
	api.Post("/campaigns/:id/enqueue", run.EnqueueRun)

	accounts := handlers.NewAccountHandler(app.credentials, app.media)
	api.Get("/accounts", accounts.ListSocialAccounts)
	api.Post("/accounts", accounts.ConnectSocialAccount)
	api.Delete("/accounts/:id", accounts.DeleteSocialAccount)
	api.Post("/media", accounts.UploadMedia)

	threads := handlers.NewThreadsHandler(app.threads)
	api.Post("/threads/preview", threads.Preview)
	api.Get("/threads/mentions", threads.MentionAnalytics)
}

// asynqLogger adapts Logger for asynq.
type asynqLogger struct {
	log *logger.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Fatal().Msg(fmt.Sprint(args...)) }
