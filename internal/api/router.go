package api

import (
	"regexp"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/d60-Lab/warbler/config"
	"github.com/d60-Lab/warbler/internal/api/handler"
	"github.com/d60-Lab/warbler/internal/api/middleware"
	"github.com/d60-Lab/warbler/internal/repository"
	"github.com/d60-Lab/warbler/internal/service"
	"github.com/d60-Lab/warbler/internal/session"
	"github.com/d60-Lab/warbler/pkg/response"
)

var usernameRE = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func validUsername(fl validator.FieldLevel) bool {
	return usernameRE.MatchString(fl.Field().String())
}

// NewRouter wires repositories, services and handlers onto a gin
// engine. Tests drive the returned engine directly through httptest.
func NewRouter(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	gin.SetMode(cfg.App.Mode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("username", validUsername)
	}

	r := gin.New()
	r.Use(middleware.GinLogger(), middleware.GinRecovery(true))
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if cfg.Telemetry.Enabled {
		r.Use(otelgin.Middleware(cfg.App.Name))
	}
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	r.SetHTMLTemplate(loadTemplates())
	r.StaticFS("/static", staticFiles())

	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	followRepo := repository.NewFollowRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	authSvc := service.NewAuthService(userRepo)
	userSvc := service.NewUserService(userRepo, messageRepo, followRepo, likeRepo)
	messageSvc := service.NewMessageService(messageRepo)
	relSvc := service.NewRelationshipService(followRepo, userRepo)
	likeSvc := service.NewLikeService(likeRepo, messageRepo)

	sessions := session.NewManager(rdb, cfg.Session)
	h := handler.New(authSvc, userSvc, messageSvc, relSvc, likeSvc, sessions)
	ah := handler.NewAPIHandler(userSvc, messageSvc, relSvc)

	r.Use(middleware.LoadUser(sessions, userSvc))

	mustLogin := middleware.RequireLogin(sessions, "You must be logged in to access this page")
	mustAuth := middleware.RequireLogin(sessions, "Access unauthorized.")

	r.GET("/", h.Home)
	r.GET("/signup", h.SignupForm)
	r.POST("/signup", h.Signup)
	r.GET("/login", h.LoginForm)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)

	r.GET("/users", h.UserIndex)
	r.GET("/users/:id", h.UserShow)
	r.GET("/users/:id/following", mustLogin, h.Following)
	r.GET("/users/:id/followers", mustLogin, h.Followers)
	r.GET("/users/:id/likes", mustLogin, h.Likes)
	r.GET("/users/profile", mustLogin, h.ProfileForm)
	r.POST("/users/profile", mustLogin, h.ProfileUpdate)
	r.POST("/users/delete", mustAuth, h.UserDelete)
	r.POST("/users/follow/:id", mustAuth, h.Follow)
	r.POST("/users/stop-following/:id", mustAuth, h.StopFollowing)
	r.POST("/users/add_like/:message_id", mustAuth, h.AddLike)
	r.POST("/users/remove_like/:message_id", mustAuth, h.RemoveLike)

	r.GET("/messages/new", mustAuth, h.MessageForm)
	r.POST("/messages/new", mustAuth, h.MessageCreate)
	r.GET("/messages/:id", h.MessageShow)
	r.POST("/messages/:id/delete", mustAuth, h.MessageDelete)

	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/users", ah.ListUsers)
		apiV1.GET("/users/:id", ah.GetUser)
		apiV1.GET("/users/:id/following", ah.ListFollowing)
		apiV1.GET("/users/:id/followers", ah.ListFollowers)
		apiV1.GET("/users/:id/messages", ah.ListUserMessages)
		apiV1.GET("/messages", ah.ListMessages)
		apiV1.GET("/messages/:id", ah.GetMessage)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		ctx := c.Request.Context()
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err == nil {
			err = rdb.Ping(ctx).Err()
		}
		if err != nil {
			response.InternalError(c, err)
			return
		}
		response.Success(c, gin.H{"status": "ok"})
	})

	r.NoRoute(h.NotFound)

	return r
}
