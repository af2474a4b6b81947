package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"anoa.com/teamcommonapp/internal/config"
	"anoa.com/teamcommonapp/internal/middleware"
	"anoa.com/teamcommonapp/internal/scheduler"
	"anoa.com/teamcommonapp/pkg/logger"
	"anoa.com/teamcommonapp/pkg/mailer"
	"anoa.com/teamcommonapp/pkg/metrics"
	"anoa.com/teamcommonapp/pkg/pubsub"
	"anoa.com/teamcommonapp/pkg/storage"

	accountHttp "anoa.com/teamcommonapp/internal/modules/account/delivery/http"
	accountRepo "anoa.com/teamcommonapp/internal/modules/account/repository"
	accountService "anoa.com/teamcommonapp/internal/modules/account/service"

	applicationHttp "anoa.com/teamcommonapp/internal/modules/application/delivery/http"
	applicationRepo "anoa.com/teamcommonapp/internal/modules/application/repository"
	applicationService "anoa.com/teamcommonapp/internal/modules/application/service"

	messageHttp "anoa.com/teamcommonapp/internal/modules/message/delivery/http"
	messageRepo "anoa.com/teamcommonapp/internal/modules/message/repository"
	messageService "anoa.com/teamcommonapp/internal/modules/message/service"

	noteHttp "anoa.com/teamcommonapp/internal/modules/note/delivery/http"
	noteRepo "anoa.com/teamcommonapp/internal/modules/note/repository"
	noteService "anoa.com/teamcommonapp/internal/modules/note/service"

	notifService "anoa.com/teamcommonapp/internal/modules/notification/service"

	profileHttp "anoa.com/teamcommonapp/internal/modules/profile/delivery/http"
	profileRepo "anoa.com/teamcommonapp/internal/modules/profile/repository"
	profileService "anoa.com/teamcommonapp/internal/modules/profile/service"

	reviewerHttp "anoa.com/teamcommonapp/internal/modules/reviewer/delivery/http"
	reviewerRepo "anoa.com/teamcommonapp/internal/modules/reviewer/repository"
	reviewerService "anoa.com/teamcommonapp/internal/modules/reviewer/service"

	searchService "anoa.com/teamcommonapp/internal/modules/search/service"

	teamHttp "anoa.com/teamcommonapp/internal/modules/team/delivery/http"
	teamRepo "anoa.com/teamcommonapp/internal/modules/team/repository"
	teamService "anoa.com/teamcommonapp/internal/modules/team/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const teamReindexJob = "team-reindex"

type Server struct {
	engine      *gin.Engine
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client
	dispatcher  *notifService.Dispatcher
	scheduler   *scheduler.Scheduler
	log         *zap.Logger
}

func NewServer(cfg *config.Config, db *gorm.DB, log *zap.Logger) (*Server, error) {
	redisClient := connectRedis(cfg.RedisURL, log)
	var broker pubsub.Broker = pubsub.Noop{}
	if redisClient != nil {
		broker = pubsub.New(redisClient)
	}

	fileStorage, err := storage.NewCloudinaryStorage(storage.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	})
	if err != nil {
		log.Warn("resume storage disabled", zap.Error(err))
		fileStorage = nil
	}

	var teamIndex searchService.TeamIndex
	if cfg.MeiliSearchHost != "" {
		meiliHost := cfg.MeiliSearchHost
		if !strings.HasPrefix(meiliHost, "http") {
			meiliHost = "http://" + meiliHost + ":7700"
		}
		teamIndex = searchService.NewMeiliTeamIndex(meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey)), log)
	}

	renderer, err := notifService.NewRenderer(cfg.SiteURL)
	if err != nil {
		return nil, err
	}

	accountRepository := accountRepo.NewAccountRepository(db)
	profileRepository := profileRepo.NewProfileRepository(db)
	teamRepository := teamRepo.NewTeamRepository(db)
	memberRepository := reviewerRepo.NewMemberRepository(db)
	applicationRepository := applicationRepo.NewApplicationRepository(db)
	messageRepository := messageRepo.NewMessageRepository(db)
	noteRepository := noteRepo.NewNoteRepository(db)

	dispatcher := notifService.NewDispatcher(
		notifService.Config{QueueSize: cfg.NotifyQueueSize, RatePerSecond: cfg.NotifyRatePerSecond},
		applicationRepository,
		accountRepository,
		memberRepository,
		renderer,
		mailer.New(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}),
		log,
	)

	authSvc := accountService.NewAuthService(accountRepository, profileRepository, cfg.JWTSecret, cfg.JWTTTL, log)
	authHandler := accountHttp.NewAuthHandler(authSvc)

	profileSvc := profileService.NewProfileService(profileRepository, fileStorage, log)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	teamSvc := teamService.NewTeamService(teamRepository, memberRepository, profileRepository, applicationRepository, teamIndex, log)
	teamHandler := teamHttp.NewTeamHandler(teamSvc)

	reviewerSvc := reviewerService.NewReviewerService(memberRepository, profileRepository, teamSvc, log)
	reviewerHandler := reviewerHttp.NewReviewerHandler(reviewerSvc)

	applicationSvc := applicationService.NewApplicationService(applicationRepository, profileRepository, messageRepository, noteRepository, teamSvc, dispatcher, log)
	applicationHandler := applicationHttp.NewApplicationHandler(applicationSvc)

	messageSvc := messageService.NewMessageService(messageRepository, applicationSvc, broker, dispatcher, log)
	messageHandler := messageHttp.NewMessageHandler(messageSvc, broker, cfg.MessageRefreshInterval, parseOrigins(cfg.AllowedOrigins), log)

	noteSvc := noteService.NewNoteService(noteRepository, applicationSvc, log)
	noteHandler := noteHttp.NewNoteHandler(noteSvc)

	jobs := scheduler.New(log)
	if teamIndex != nil {
		err := jobs.Register(scheduler.FuncJob{
			JobName:  teamReindexJob,
			Spec:     cfg.TeamReindexSchedule,
			Function: teamSvc.ReindexTeams,
		})
		if err != nil {
			return nil, err
		}
	}

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, parseOrigins(cfg.AllowedOrigins))

	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware(log, "/metrics", "/healthz"))
	router.Use(metrics.GinMiddleware())

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authMiddleware := middleware.NewAuthMiddleware(accountRepository, cfg.JWTSecret)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Profile routes
		protected.POST("/profile", profileHandler.CreateProfile)
		protected.PUT("/profile", profileHandler.UpdateProfile)
		protected.GET("/profile/me", profileHandler.GetCurrentProfile)
		protected.POST("/profile/resume", profileHandler.UploadResume)
		protected.DELETE("/profile/resume", profileHandler.DeleteResume)

		// Team routes
		protected.GET("/teams", teamHandler.ListTeams)
		protected.GET("/teams/managed", teamHandler.ManagedTeams)
		protected.GET("/teams/:team_id", teamHandler.GetTeam)
		protected.PUT("/teams/:team_id/deadlines", teamHandler.SetDeadlines)
		protected.POST("/teams/:team_id/applications", applicationHandler.CreateApplication)
		protected.GET("/teams/:team_id/applications", applicationHandler.ListTeamApplications)
		protected.GET("/teams/:team_id/reviewers", reviewerHandler.ListReviewers)
		protected.POST("/teams/:team_id/reviewers", reviewerHandler.AddReviewer)
		protected.DELETE("/teams/:team_id/reviewers/:user_id", reviewerHandler.RemoveReviewer)

		// Application routes
		protected.GET("/applications/me", applicationHandler.ListMyApplications)
		protected.GET("/applications/:application_id", applicationHandler.GetApplication)
		protected.PUT("/applications/:application_id", applicationHandler.UpdateAnswers)
		protected.POST("/applications/:application_id/submit", applicationHandler.SubmitApplication)
		protected.PUT("/applications/:application_id/status", applicationHandler.SetStatus)

		// Message routes
		protected.GET("/applications/:application_id/messages", messageHandler.ListMessages)
		protected.POST("/applications/:application_id/messages", messageHandler.SendMessage)
		protected.GET("/applications/:application_id/messages/ws", messageHandler.StreamMessages)

		// Note routes
		protected.GET("/applications/:application_id/notes", noteHandler.ListNotes)
		protected.POST("/applications/:application_id/notes", noteHandler.CreateNote)
		protected.PUT("/notes/:note_id", noteHandler.UpdateNote)
		protected.DELETE("/notes/:note_id", noteHandler.DeleteNote)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		dispatcher:  dispatcher,
		scheduler:   jobs,
		log:         log,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts background workers and serves HTTP until Shutdown is called.
func (s *Server) Run(addr string) error {
	s.dispatcher.Start(context.Background())
	s.scheduler.Start()

	// Fill the index right away instead of waiting for the first tick.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.scheduler.RunByName(ctx, teamReindexJob); err != nil {
			s.log.Debug("initial team reindex skipped", zap.Error(err))
		}
	}()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Info("http server listening", zap.String("addr", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains HTTP traffic, then stops the scheduler and the outbox worker.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.scheduler.Stop()
	s.dispatcher.Stop()

	if s.redisClient != nil {
		if cerr := s.redisClient.Close(); cerr != nil {
			s.log.Warn("failed to close redis client", zap.Error(cerr))
		}
	}
	if sqlDB, derr := s.db.DB(); derr == nil {
		_ = sqlDB.Close()
	}
	return err
}

// connectRedis returns nil when redis is not configured or unreachable. The
// message stream then falls back to polling.
func connectRedis(url string, log *zap.Logger) *redis.Client {
	if url == "" {
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("invalid REDIS_URL, live message events disabled", zap.Error(err))
		return nil
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, live message events disabled", zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}

// parseOrigins splits the comma separated ALLOWED_ORIGINS value. CORS and
// the message websocket share the result.
func parseOrigins(allowedOrigins string) []string {
	var origins []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return origins
}

func setupCORS(router *gin.Engine, origins []string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
