package webserver

import (
	"encoding/binary"
	"net/http"
	"strconv"

	"github.com/OneOfOne/xxhash"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stake-plus/guildpanel/src/api/views"
	"github.com/stake-plus/guildpanel/src/types"
)

type AutoroleAPI struct {
	configs ConfigStore
	log     logrus.FieldLogger
}

func NewAutoroleAPI(configs ConfigStore, log logrus.FieldLogger) AutoroleAPI {
	return AutoroleAPI{configs: configs, log: log}
}

func (a AutoroleAPI) Get(c *gin.Context) {
	guild := currentGuild(c)
	ctx := c.Request.Context()

	sc, err := a.configs.Load(ctx, guild.ID())
	if err != nil {
		a.log.WithError(err).WithField("guild", guild.ID()).Error("load server config")
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to load config"})
		return
	}

	ac := sc.AutoroleConfig()
	if kept, removed := views.PruneRoles(guild, ac.Roles); len(removed) > 0 {
		ac.Roles = kept
		sc.SetAutoroleConfig(ac)
		if err := a.configs.Save(ctx, sc); err != nil {
			a.log.WithError(err).WithField("guild", guild.ID()).Error("save pruned autoroles")
			c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to save config"})
			return
		}
	}

	a.respond(c, sc.AutoroleConfig())
}

func (a AutoroleAPI) Put(c *gin.Context) {
	var req struct {
		Enabled *bool    `json:"enabled" binding:"required"`
		Roles   []string `json:"roles" binding:"max=250,dive,required,numeric"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	guild := currentGuild(c)
	ctx := c.Request.Context()

	sc, err := a.configs.Load(ctx, guild.ID())
	if err != nil {
		a.log.WithError(err).WithField("guild", guild.ID()).Error("load server config")
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to load config"})
		return
	}

	if match := c.GetHeader("If-Match"); match != "" && match != autoroleETag(sc.AutoroleConfig()) {
		c.JSON(http.StatusPreconditionFailed, gin.H{"err": "config changed since it was read"})
		return
	}

	if _, missing := views.PruneRoles(guild, req.Roles); len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "unknown roles", "roles": missing})
		return
	}

	roles := req.Roles
	if roles == nil {
		roles = []string{}
	}
	sc.SetAutoroleConfig(types.AutoroleConfig{Enabled: *req.Enabled, Roles: roles})
	if err := a.configs.Save(ctx, sc); err != nil {
		a.log.WithError(err).WithField("guild", guild.ID()).Error("save autoroles")
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to save config"})
		return
	}

	a.log.WithFields(logrus.Fields{
		"guild": guild.ID(),
		"user":  currentSession(c).UserID,
	}).Info("autorole settings updated via api")
	a.respond(c, sc.AutoroleConfig())
}

func (a AutoroleAPI) respond(c *gin.Context, ac types.AutoroleConfig) {
	etag := autoroleETag(ac)
	c.Header("ETag", etag)
	c.JSON(http.StatusOK, gin.H{"enabled": ac.Enabled, "roles": ac.Roles, "etag": etag})
}

// autoroleETag hashes the stored fields; role IDs are length-prefixed so
// different splits never collide.
func autoroleETag(ac types.AutoroleConfig) string {
	h := xxhash.NewS64(0)
	if ac.Enabled {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	var n [4]byte
	for _, r := range ac.Roles {
		binary.BigEndian.PutUint32(n[:], uint32(len(r)))
		h.Write(n[:])
		h.Write([]byte(r))
	}
	return `"` + strconv.FormatUint(h.Sum64(), 16) + `"`
}
