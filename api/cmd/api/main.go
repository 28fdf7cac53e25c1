package main

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"conduit-blog-platform/api/internal/handlers"
	"conduit-blog-platform/api/internal/repos"
	"conduit-blog-platform/api/internal/services"
	"conduit-blog-platform/shared/cachex"
	"conduit-blog-platform/shared/config"
	"conduit-blog-platform/shared/dbx"
	"conduit-blog-platform/shared/eventbus"
	"conduit-blog-platform/shared/httpx"
	"conduit-blog-platform/shared/influxx"
	"conduit-blog-platform/shared/logx"
	"conduit-blog-platform/shared/metricsx"
	"conduit-blog-platform/shared/mqx"
	"conduit-blog-platform/shared/observability"
	"conduit-blog-platform/shared/txn"
)

type statusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Env     string `json:"env,omitempty"`
	Version string `json:"version,omitempty"`
}

func main() {
	cfg, readyProblems := config.Load("api", 8080)
	version := strings.TrimSpace(os.Getenv("VERSION"))
	logger := logx.New(cfg.ServiceName, cfg.Env, version, cfg.LogLevel)
	ctx := context.Background()

	metricsx.Register()

	if cfg.OtelEnabled {
		if shutdown, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: cfg.ServiceName,
			Env:         cfg.Env,
			Endpoint:    cfg.OtelEndpoint,
			Insecure:    cfg.OtelInsecure,
			SampleRatio: cfg.OtelSampleRatio,
		}); err == nil {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	if cfg.DatabaseURL == "" {
		readyProblems = append(readyProblems, config.Problem{Field: "DATABASE_URL", Message: "DATABASE_URL is required"})
	}

	provider := dbx.NewProvider(func() config.Config { return cfg }, logger)
	defer provider.Reset()

	var auditRepo *repos.AuditRepo
	if cfg.DatabaseURL != "" {
		pool, err := provider.Get(ctx)
		if err != nil {
			readyProblems = append(readyProblems, config.Problem{Field: "DATABASE_URL", Message: "failed to connect to database"})
			logger.Error(ctx, "db_init_failed", "database init failed",
				slog.String("error_code", "FAILED_PRECONDITION"),
				slog.String("error", err.Error()),
			)
		} else {
			auditRepo = repos.NewAuditRepo(pool)
		}
	}

	var cache *cachex.Client
	if cfg.RedisAddr != "" {
		var err error
		cache, err = cachex.New(cfg)
		if err == nil {
			defer cache.Close()
		} else {
			logger.Warn(ctx, "redis_init_failed", "redis init failed, continuing without cache",
				slog.String("error", err.Error()))
		}
	}

	var producer *mqx.Producer
	if len(cfg.KafkaBrokers) > 0 {
		var err error
		producer, err = mqx.NewProducer(cfg)
		if err == nil {
			defer producer.Close()
		} else {
			logger.Warn(ctx, "kafka_init_failed", "kafka producer init failed, continuing without it",
				slog.String("error", err.Error()))
		}
	}

	var influx *influxx.Client
	if cfg.InfluxURL != "" {
		var err error
		influx, err = influxx.New(cfg)
		if err == nil {
			defer influx.Close()
		} else {
			logger.Warn(ctx, "influx_init_failed", "influx init failed, continuing without it",
				slog.String("error", err.Error()))
		}
	}

	var taskClient *asynq.Client
	if cfg.AsynqEnabled && cfg.AsynqRedisAddr != "" {
		taskClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.AsynqRedisAddr,
			Password: cfg.AsynqRedisPass,
			DB:       cfg.AsynqRedisDB,
		})
		defer taskClient.Close()
	}

	bus := eventbus.New(logger)
	var publisher eventbus.Publisher = bus
	if cfg.EventLogEnabled {
		durable, err := eventbus.NewDurable(bus, cfg.EventLogPath, logger)
		if err != nil {
			readyProblems = append(readyProblems, config.Problem{Field: "EVENT_LOG_PATH", Message: "failed to open event log"})
			logger.Error(ctx, "event_log_init_failed", "durable event log init failed",
				slog.String("error_code", "FAILED_PRECONDITION"),
				slog.String("error", err.Error()),
			)
		} else {
			publisher = durable
		}
	}

	// Handlers that raise events of their own publish through the
	// decorated surface so raised events land in the durable log too.
	handlers.RegisterAll(bus, handlers.Deps{
		Logger:    logger,
		Cfg:       cfg,
		Cache:     cache,
		Producer:  producer,
		Influx:    influx,
		Audit:     auditRepo,
		Tasks:     taskClient,
		Publisher: publisher,
	})

	runner := txn.NewRunner(func(ctx context.Context) (txn.Beginner, error) {
		return provider.Get(ctx)
	}, publisher, logger)

	userSvc := services.NewUserService(runner, publisher, logger)
	profileSvc := services.NewProfileService(runner, logger)
	articleSvc := services.NewArticleService(runner, logger, cfg.PopularTagThreshold)
	commentSvc := services.NewCommentService(runner, publisher, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, statusResponse{
			Status:  "ok",
			Service: cfg.ServiceName,
			Env:     cfg.Env,
			Version: version,
		})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if len(readyProblems) > 0 {
			httpx.WriteError(w, r, http.StatusServiceUnavailable, "FAILED_PRECONDITION",
				"service not ready: invalid configuration",
				map[string]any{"problems": readyProblems},
			)
			return
		}
		pool, err := provider.Get(r.Context())
		if err != nil || dbx.Ping(r.Context(), pool) != nil {
			httpx.WriteError(w, r, http.StatusServiceUnavailable, "FAILED_PRECONDITION",
				"service not ready: database unavailable",
				map[string]any{"problem": "db_ping_failed"},
			)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, statusResponse{
			Status:  "ready",
			Service: cfg.ServiceName,
			Env:     cfg.Env,
			Version: version,
		})
	})
	mux.Handle("GET /metrics", metricsx.Handler())

	mux.HandleFunc("POST /api/v1/users", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Username == "" || req.Email == "" || req.Password == "" {
			httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "username, email and password are required", nil)
			return
		}
		user, err := userSvc.Register(r.Context(), req.Username, req.Email, hashPassword(req.Password))
		if err != nil {
			httpx.WriteError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to register user", nil)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, map[string]any{
			"user_id":  user.UserID,
			"username": user.Username,
			"email":    user.Email,
		})
	})
	mux.HandleFunc("POST /api/v1/users/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		user, err := userSvc.Authenticate(r.Context(), req.Email, func(stored string) bool {
			candidate := hashPassword(req.Password)
			return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
		})
		if err != nil {
			if errors.Is(err, services.ErrInvalidCredentials) {
				httpx.WriteError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid credentials", nil)
				return
			}
			httpx.WriteError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "login failed", nil)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"user_id":  user.UserID,
			"username": user.Username,
			"email":    user.Email,
		})
	})
	mux.HandleFunc("PUT /api/v1/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		userID, ok := parseID(w, r, r.PathValue("id"))
		if !ok {
			return
		}
		var req struct {
			Bio   *string `json:"bio"`
			Image *string `json:"image"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		user, err := userSvc.UpdateProfile(r.Context(), userID, req.Bio, req.Image)
		if err != nil {
			writeServiceError(w, r, err, "failed to update profile")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"user_id":  user.UserID,
			"username": user.Username,
			"bio":      user.Bio,
			"image":    user.Image,
		})
	})
	mux.HandleFunc("PUT /api/v1/users/{id}/password", func(w http.ResponseWriter, r *http.Request) {
		userID, ok := parseID(w, r, r.PathValue("id"))
		if !ok {
			return
		}
		var req struct {
			Password string `json:"password"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Password == "" {
			httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "password is required", nil)
			return
		}
		if err := userSvc.ChangePassword(r.Context(), userID, hashPassword(req.Password)); err != nil {
			writeServiceError(w, r, err, "failed to change password")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /api/v1/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		userID, ok := parseID(w, r, r.PathValue("id"))
		if !ok {
			return
		}
		if err := userSvc.Deactivate(r.Context(), userID); err != nil {
			writeServiceError(w, r, err, "failed to deactivate user")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /api/v1/profiles/{id}/follow", func(w http.ResponseWriter, r *http.Request) {
		followeeID, ok := parseID(w, r, r.PathValue("id"))
		if !ok {
			return
		}
		followerID, ok := parseID(w, r, r.Header.Get("X-User-ID"))
		if !ok {
			return
		}
		if err := profileSvc.Follow(r.Context(), followerID, followeeID); err != nil {
			if errors.Is(err, services.ErrSelfFollow) {
				httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "cannot follow yourself", nil)
				return
			}
			writeServiceError(w, r, err, "failed to follow")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /api/v1/profiles/{id}/follow", func(w http.ResponseWriter, r *http.Request) {
		followeeID, ok := parseID(w, r, r.PathValue("id"))
		if !ok {
			return
		}
		followerID, ok := parseID(w, r, r.Header.Get("X-User-ID"))
		if !ok {
			return
		}
		if err := profileSvc.Unfollow(r.Context(), followerID, followeeID); err != nil {
			writeServiceError(w, r, err, "failed to unfollow")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /api/v1/articles", func(w http.ResponseWriter, r *http.Request) {
		authorID, ok := parseID(w, r, r.Header.Get("X-User-ID"))
		if !ok {
			return
		}
		var req struct {
			Title       string   `json:"title"`
			Description string   `json:"description"`
			Body        string   `json:"body"`
			Tags        []string `json:"tags"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Title == "" {
			httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "title is required", nil)
			return
		}
		article, err := articleSvc.Create(r.Context(), authorID, req.Title, req.Description, req.Body, req.Tags)
		if err != nil {
			writeServiceError(w, r, err, "failed to create article")
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, article)
	})
	mux.HandleFunc("GET /api/v1/articles/{slug}", func(w http.ResponseWriter, r *http.Request) {
		article, err := articleSvc.GetBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			writeServiceError(w, r, err, "failed to load article")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, article)
	})
	mux.HandleFunc("PUT /api/v1/articles/{id}", func(w http.ResponseWriter, r *http.Request) {
		articleID, ok := parseID(w, r, r.PathValue("id"))
		if !ok {
			return
		}
		var req struct {
			Title       *string `json:"title"`
			Description *string `json:"description"`
			Body        *string `json:"body"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		article, err := articleSvc.Update(r.Context(), articleID, req.Title, req.Description, req.Body)
		if err != nil {
			writeServiceError(w, r, err, "failed to update article")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, article)
	})
	mux.HandleFunc("DELETE /api/v1/articles/{id}", func(w http.ResponseWriter, r *http.Request) {
		articleID, ok := parseID(w, r, r.PathValue("id"))
		if !ok {
			return
		}
		authorID, ok := parseID(w, r, r.Header.Get("X-User-ID"))
		if !ok {
			return
		}
		if err := articleSvc.Delete(r.Context(), articleID, authorID); err != nil {
			writeServiceError(w, r, err, "failed to delete article")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/v1/articles/{id}/favorite", func(w http.ResponseWriter, r *http.Request) {
		articleID, ok := parseID(w, r, r.PathValue("id"))
		if !ok {
			return
		}
		userID, ok := parseID(w, r, r.Header.Get("X-User-ID"))
		if !ok {
			return
		}
		if err := articleSvc.Favorite(r.Context(), articleID, userID); err != nil {
			writeServiceError(w, r, err, "failed to favorite article")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /api/v1/articles/{id}/favorite", func(w http.ResponseWriter, r *http.Request) {
		articleID, ok := parseID(w, r, r.PathValue("id"))
		if !ok {
			return
		}
		userID, ok := parseID(w, r, r.Header.Get("X-User-ID"))
		if !ok {
			return
		}
		if err := articleSvc.Unfavorite(r.Context(), articleID, userID); err != nil {
			writeServiceError(w, r, err, "failed to unfavorite article")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/v1/articles/{id}/view", func(w http.ResponseWriter, r *http.Request) {
		articleID, ok := parseID(w, r, r.PathValue("id"))
		if !ok {
			return
		}
		views, err := articleSvc.IncrementView(r.Context(), articleID)
		if err != nil {
			writeServiceError(w, r, err, "failed to record view")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"views": views})
	})

	mux.HandleFunc("POST /api/v1/articles/{id}/comments", func(w http.ResponseWriter, r *http.Request) {
		articleID, ok := parseID(w, r, r.PathValue("id"))
		if !ok {
			return
		}
		authorID, ok := parseID(w, r, r.Header.Get("X-User-ID"))
		if !ok {
			return
		}
		var req struct {
			Body   string   `json:"body"`
			Bodies []string `json:"bodies"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if len(req.Bodies) > 0 {
			comments, err := commentSvc.AddBulk(r.Context(), articleID, authorID, req.Bodies)
			if err != nil {
				writeServiceError(w, r, err, "failed to add comments")
				return
			}
			httpx.WriteJSON(w, http.StatusCreated, map[string]any{"comments": comments})
			return
		}
		if req.Body == "" {
			httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "body is required", nil)
			return
		}
		comment, err := commentSvc.Add(r.Context(), articleID, authorID, req.Body)
		if err != nil {
			writeServiceError(w, r, err, "failed to add comment")
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, comment)
	})
	mux.HandleFunc("GET /api/v1/articles/{id}/comments", func(w http.ResponseWriter, r *http.Request) {
		articleID, ok := parseID(w, r, r.PathValue("id"))
		if !ok {
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		comments, err := commentSvc.ListByArticle(r.Context(), articleID, limit)
		if err != nil {
			writeServiceError(w, r, err, "failed to list comments")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"comments": comments})
	})
	mux.HandleFunc("DELETE /api/v1/articles/{id}/comments/{commentID}", func(w http.ResponseWriter, r *http.Request) {
		articleID, ok := parseID(w, r, r.PathValue("id"))
		if !ok {
			return
		}
		commentID, ok := parseID(w, r, r.PathValue("commentID"))
		if !ok {
			return
		}
		if err := commentSvc.Delete(r.Context(), commentID, articleID); err != nil {
			writeServiceError(w, r, err, "failed to delete comment")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	var handler http.Handler = mux
	handler = metricsx.Instrument(handler)
	handler = httpx.WithRequestID(handler)
	handler = httpx.WithRecover(logger, handler)
	handler = httpx.WithRequestLog(logger, httpx.RequestLogOptions{SkipPaths: map[string]bool{
		"/healthz": true,
		"/metrics": true,
	}}, handler)
	handler = otelhttp.NewHandler(handler, "http.server")

	server := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(cfg.HTTPPort)),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "service_start", "starting service",
			slog.String("addr", server.Addr),
			slog.Int("http_port", cfg.HTTPPort),
			slog.String("log_level", cfg.LogLevel),
			slog.Bool("event_log_enabled", cfg.EventLogEnabled),
		)
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info(ctx, "shutdown_signal", "received signal", slog.String("signal", sig.String()))
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "server_failed", "server failed",
				slog.String("error_code", "INTERNAL_ERROR"),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "shutdown_failed", "shutdown failed",
			slog.String("error_code", "INTERNAL_ERROR"),
			slog.String("error", err.Error()),
		)
	}
	logger.Info(ctx, "service_stop", "service stopped")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid JSON body", nil)
		return false
	}
	return true
}

func parseID(w http.ResponseWriter, r *http.Request, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, services.ErrNotFound) {
		httpx.WriteError(w, r, http.StatusNotFound, "NOT_FOUND", "record not found", nil)
		return
	}
	httpx.WriteError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", msg, nil)
}

// hashPassword is a stand-in credential hash; token issuing and session
// handling live in the identity gateway, not in this service.
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
