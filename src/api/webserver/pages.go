package webserver

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stake-plus/guildpanel/src/api/auth"
	"github.com/stake-plus/guildpanel/src/api/views"
	"github.com/stake-plus/guildpanel/src/config"
	"github.com/stake-plus/guildpanel/src/guilds"
)

const errorTemplate = "error.html"

type Pages struct {
	cfg      config.Config
	configs  ConfigStore
	sessions SessionStore
	oauth    Authenticator
	log      logrus.FieldLogger
}

func NewPages(cfg config.Config, deps Deps) Pages {
	return Pages{
		cfg:      cfg,
		configs:  deps.Configs,
		sessions: deps.Sessions,
		oauth:    deps.OAuth,
		log:      deps.Log,
	}
}

func (p Pages) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", p.baseVars(c, "index"))
}

func (p Pages) Login(c *gin.Context) {
	if currentSession(c) != nil {
		c.Redirect(http.StatusFound, "/guilds")
		return
	}
	target, err := p.oauth.AuthCodeURL(c.Request.Context())
	if err != nil {
		p.log.WithError(err).Error("start oauth login")
		renderError(c, http.StatusInternalServerError, "Login is unavailable right now.")
		return
	}
	c.Redirect(http.StatusFound, target)
}

func (p Pages) Callback(c *gin.Context) {
	if e := c.Query("error"); e != "" {
		renderError(c, http.StatusUnauthorized, "Discord login was cancelled.")
		return
	}

	id, err := p.oauth.Complete(c.Request.Context(), c.Query("state"), c.Query("code"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidState) {
			renderError(c, http.StatusBadRequest, "Your login link expired. Please try again.")
			return
		}
		p.log.WithError(err).Error("complete oauth login")
		renderError(c, http.StatusBadGateway, "Discord login failed.")
		return
	}

	sess, err := p.sessions.Create(c.Request.Context(), id)
	if err != nil {
		p.log.WithError(err).Error("create session")
		renderError(c, http.StatusInternalServerError, "Could not start your session.")
		return
	}

	token, err := auth.IssueToken(sess.ID, []byte(p.cfg.JWTSecret), p.cfg.SessionTTL)
	if err != nil {
		p.log.WithError(err).Error("issue session token")
		renderError(c, http.StatusInternalServerError, "Could not start your session.")
		return
	}

	p.log.WithFields(logrus.Fields{"user": sess.UserID, "guilds": len(sess.Guilds)}).Info("dashboard login")
	p.setCookie(c, token, int(p.cfg.SessionTTL.Seconds()))
	c.Redirect(http.StatusFound, "/guilds")
}

func (p Pages) Logout(c *gin.Context) {
	sess := currentSession(c)
	if err := p.sessions.Delete(c.Request.Context(), sess.ID); err != nil {
		p.log.WithError(err).Warn("delete session")
	}
	p.setCookie(c, "", -1)
	c.Redirect(http.StatusFound, "/")
}

func (p Pages) Guilds(c *gin.Context) {
	vars := p.baseVars(c, "guilds")
	vars["guilds"] = currentSession(c).ManageableGuilds()
	c.HTML(http.StatusOK, "guilds.html", vars)
}

// Autorole runs the auto-role view. Form fields are read from the POST body
// only; query parameters on a GET never change settings. An "autoroles" value
// is split on ';' and empty segments are dropped, so "111;;222" saves
// [111 222]. A GET still prunes and saves role IDs the guild no longer has.
func (p Pages) Autorole(c *gin.Context) {
	guild := currentGuild(c)
	sess := currentSession(c)
	ctx := c.Request.Context()

	sc, err := p.configs.Load(ctx, guild.ID())
	if err != nil {
		p.log.WithError(err).WithField("guild", guild.ID()).Error("load server config")
		renderError(c, http.StatusInternalServerError, "Could not load this server's settings.")
		return
	}

	form := url.Values{}
	if c.Request.Method == http.MethodPost {
		if err := c.Request.ParseForm(); err != nil {
			renderError(c, http.StatusBadRequest, "Malformed form.")
			return
		}
		form = c.Request.PostForm
	}

	rc := views.NewRenderContext(guild, form)
	tmpl, err := views.Autorole(ctx, rc, sess, sc, p.configs)
	if err != nil {
		if errors.Is(err, guilds.ErrGuildUnavailable) {
			renderError(c, http.StatusNotFound, "the bot is not in this server")
			return
		}
		p.log.WithError(err).WithField("guild", guild.ID()).Error("autorole view")
		renderError(c, http.StatusInternalServerError, "Could not save this server's settings.")
		return
	}

	if c.Request.Method == http.MethodPost {
		p.log.WithFields(logrus.Fields{
			"guild":   guild.ID(),
			"user":    sess.UserID,
			"enabled": sc.Autorole.Enabled,
			"roles":   len(sc.Autorole.Roles),
		}).Info("autorole settings updated")
	}

	vars := p.baseVars(c, "")
	for k, v := range rc.Vars {
		vars[k] = v
	}
	vars["guildID"] = guild.ID()
	c.HTML(http.StatusOK, tmpl, vars)
}

func (p Pages) baseVars(c *gin.Context, whereAmI string) gin.H {
	vars := gin.H{"whereAmI": whereAmI}
	if sess := currentSession(c); sess != nil {
		vars["user"] = sess.Username
		vars["csrfToken"] = sess.CSRF
	}
	return vars
}

func (p Pages) setCookie(c *gin.Context, value string, maxAge int) {
	secure := p.cfg.EnableSSL || strings.HasPrefix(p.cfg.PublicURL, "https://")
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, value, maxAge, "/", "", secure, true)
}

func renderError(c *gin.Context, status int, msg string) {
	c.HTML(status, errorTemplate, gin.H{"whereAmI": "error", "status": status, "message": msg})
}
