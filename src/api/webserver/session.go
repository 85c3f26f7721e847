package webserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stake-plus/guildpanel/src/api/auth"
)

const (
	sessionCookie = "gp_session"

	ctxSession = "session"
	ctxGuild   = "guild"
)

// SessionMiddleware attaches the session named by the cookie or bearer token,
// if any. It never rejects a request.
func SessionMiddleware(sessions SessionStore, secret []byte, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			raw, _ = c.Cookie(sessionCookie)
		}
		if raw == "" {
			c.Next()
			return
		}

		sid, err := auth.ParseToken(raw, secret)
		if err != nil {
			c.Next()
			return
		}

		sess, err := sessions.Get(c.Request.Context(), sid)
		switch {
		case err == nil:
			c.Set(ctxSession, sess)
		case !errors.Is(err, auth.ErrSessionNotFound):
			log.WithError(err).Error("load session")
		}
		c.Next()
	}
}

// RequireSession rejects anonymous requests: pages redirect to /login, the
// API answers 401.
func RequireSession(html bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentSession(c) != nil {
			c.Next()
			return
		}
		if html {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"err": "login required"})
	}
}

func currentSession(c *gin.Context) *auth.Session {
	v, ok := c.Get(ctxSession)
	if !ok {
		return nil
	}
	sess, _ := v.(*auth.Session)
	return sess
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return h[7:]
}
