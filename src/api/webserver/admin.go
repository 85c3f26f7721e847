package webserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stake-plus/guildpanel/src/guilds"
)

// GuildAdminMiddleware lets the request through only when the session user
// can manage the guild and the bot can see it. The live guild is stored in
// the context.
func GuildAdminMiddleware(resolver GuildResolver, html bool, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		guildID := c.Param("guildID")
		sess := currentSession(c)

		sg, ok := sess.Guild(guildID)
		if !ok || !sg.CanManage() {
			fail(c, html, http.StatusForbidden, "you cannot manage this server")
			return
		}

		guild, err := resolver.Guild(guildID)
		if err != nil {
			if errors.Is(err, guilds.ErrGuildUnavailable) {
				fail(c, html, http.StatusNotFound, "the bot is not in this server")
				return
			}
			log.WithError(err).WithField("guild", guildID).Error("resolve guild")
			fail(c, html, http.StatusBadGateway, "could not reach Discord")
			return
		}

		c.Set(ctxGuild, guild)
		c.Next()
	}
}

func currentGuild(c *gin.Context) guilds.Guild {
	v, _ := c.Get(ctxGuild)
	g, _ := v.(guilds.Guild)
	return g
}

func fail(c *gin.Context, html bool, status int, msg string) {
	if html {
		renderError(c, status, msg)
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"err": msg})
}
