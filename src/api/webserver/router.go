package webserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stake-plus/guildpanel/src/config"
)

func attachRoutes(ctx context.Context, r *gin.Engine, cfg config.Config, deps Deps) {
	secret := []byte(cfg.JWTSecret)
	limiter := NewRateLimiter(ctx, cfg.RateLimit, time.Minute)

	r.GET("/healthz", Health(deps.Health))

	r.Use(SessionMiddleware(deps.Sessions, secret, deps.Log))
	r.Use(RateLimitMiddleware(limiter))

	pages := NewPages(cfg, deps)
	r.GET("/", pages.Index)
	r.GET("/login", pages.Login)
	r.GET("/auth/callback", pages.Callback)
	r.POST("/logout", RequireSession(true), CSRFMiddleware(), pages.Logout)
	r.GET("/guilds", RequireSession(true), pages.Guilds)

	guild := r.Group("/guild/:guildID", RequireSession(true), GuildAdminMiddleware(deps.Guilds, true, deps.Log))
	{
		guild.GET("/configure/autorole", pages.Autorole)
		guild.POST("/configure/autorole", CSRFMiddleware(), pages.Autorole)
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{cfg.PublicURL}
	}

	v1 := r.Group("/v1")
	v1.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "If-Match"},
		ExposeHeaders:    []string{"Content-Length", "ETag"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	{
		api := NewAutoroleAPI(deps.Configs, deps.Log)

		secured := v1.Group("/guilds/:guildID", RequireSession(false), GuildAdminMiddleware(deps.Guilds, false, deps.Log))
		secured.GET("/autorole", api.Get)
		secured.PUT("/autorole", api.Put)
	}
}
