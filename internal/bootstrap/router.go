package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campushub/campushub-backend/config"
	httpapi "github.com/campushub/campushub-backend/internal/api/http"
	apimw "github.com/campushub/campushub-backend/internal/api/http/middleware"
	"github.com/campushub/campushub-backend/internal/auth"
	"github.com/campushub/campushub-backend/internal/auth/email"
	authhttp "github.com/campushub/campushub-backend/internal/auth/http"
	authmw "github.com/campushub/campushub-backend/internal/auth/middleware"
	authservice "github.com/campushub/campushub-backend/internal/auth/service"
	"github.com/campushub/campushub-backend/internal/auth/verification"
	cataloghttp "github.com/campushub/campushub-backend/internal/catalog/http"
	catalogrepo "github.com/campushub/campushub-backend/internal/catalog/repository"
	"github.com/campushub/campushub-backend/internal/db"
	offershttp "github.com/campushub/campushub-backend/internal/offers/http"
	offersrepo "github.com/campushub/campushub-backend/internal/offers/repository"
	offersservice "github.com/campushub/campushub-backend/internal/offers/service"
	projectshttp "github.com/campushub/campushub-backend/internal/projects/http"
	projectsrepo "github.com/campushub/campushub-backend/internal/projects/repository"
	projectsservice "github.com/campushub/campushub-backend/internal/projects/service"
	"github.com/campushub/campushub-backend/internal/storage/files"
	"github.com/campushub/campushub-backend/internal/uploads"
	usershttp "github.com/campushub/campushub-backend/internal/users/http"
	usersrepo "github.com/campushub/campushub-backend/internal/users/repository"
	usersservice "github.com/campushub/campushub-backend/internal/users/service"
)

type RouterDeps struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *db.DB
	Redis    *redis.Client
	Files    *files.Store
	Uploads  *uploads.Receiver
	Verifier auth.Verifier
	JWT      *auth.JWT
	Registry *prometheus.Registry
}

// NewVerifier picks the bearer token verifier for the configured auth provider.
// Login always issues local JWTs; with AUTH_PROVIDER=firebase incoming tokens
// are Firebase ID tokens instead.
func NewVerifier(ctx context.Context, cfg config.AuthConfig, jwt *auth.JWT, users auth.ExternalUsers) (auth.Verifier, error) {
	switch cfg.Provider {
	case config.AuthProviderFirebase:
		client, err := auth.InitializeFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			return nil, err
		}
		return auth.NewFirebaseVerifier(client, users), nil
	default:
		return jwt, nil
	}
}

func BuildRouter(dep RouterDeps) (*gin.Engine, error) {
	cfg := dep.Config

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(apimw.RequestID(dep.Logger))
	r.Use(apimw.NewHTTPMetrics(dep.Registry).Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", apimw.HeaderRequestID},
		ExposeHeaders:    []string{apimw.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler("campushub-backend", cfg.App.Version, map[string]httpapi.Check{
		"postgres": func(ctx context.Context) error { return dep.DB.Pool.Ping(ctx) },
		"redis":    func(ctx context.Context) error { return dep.Redis.Ping(ctx).Err() },
		"storage":  dep.Files.Check,
	})
	healthHandler.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(dep.Registry, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.Static("/public", dep.Files.Root())

	requireUser := authmw.RequireUser(dep.Verifier)
	optionalUser := authmw.OptionalUser(dep.Verifier)

	catalogRepo := catalogrepo.New(dep.DB.SQL)
	userRepo := usersrepo.NewUserRepository(dep.DB.SQL)
	projectRepo := projectsrepo.NewProjectRepository(dep.DB.SQL)
	imageRepo := projectsrepo.NewImageRepository(dep.DB.SQL)
	offerRepo := offersrepo.NewOfferRepository(dep.DB.SQL)

	mailer, err := email.New(cfg.Email, dep.Logger)
	if err != nil {
		return nil, fmt.Errorf("email sender: %w", err)
	}
	codes := verification.NewStore(dep.Redis, cfg.Email.CodeTTL)
	loginLimit := authmw.NewRateLimiter(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginBurst)

	authService := authservice.NewAuthService(userRepo, dep.JWT, codes, mailer)
	authhttp.New(authService, requireUser, loginLimit.Middleware()).Register(api)

	cataloghttp.New(catalogRepo).Register(api)

	projectService := projectsservice.NewProjectService(
		projectRepo, imageRepo, catalogRepo, dep.Files,
		projectsservice.NewMetrics(dep.Registry),
	)
	projectHandler := projectshttp.New(projectService, dep.Uploads, requireUser, optionalUser)
	projectHandler.Register(api.Group("/projects"))

	usersGroup := api.Group("/users")
	userService := usersservice.NewUserService(userRepo, catalogRepo, dep.Files)
	usershttp.New(userService, dep.Uploads, requireUser).Register(usersGroup)
	projectHandler.RegisterOwnerRoutes(usersGroup)

	offerService := offersservice.NewOfferService(offerRepo, catalogRepo, dep.Files)
	offershttp.New(offerService, dep.Uploads, requireUser).Register(api.Group("/offers"))

	return r, nil
}
