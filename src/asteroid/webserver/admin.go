package webserver

import (
	"crypto/subtle"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/asteroid-bot/asteroid/src/asteroid/data"
)

type Admin struct {
	configs    *data.GuildConfigs
	jwtSecret  []byte
	adminToken string
}

func NewAdmin(db *gorm.DB, secret []byte, adminToken string) Admin {
	return Admin{
		configs:    data.NewGuildConfigs(db),
		jwtSecret:  secret,
		adminToken: adminToken,
	}
}

// Token exchanges the shared admin token for a short-lived JWT.
func (a Admin) Token(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if a.adminToken == "" ||
		subtle.ConstantTimeCompare([]byte(req.Token), []byte(a.adminToken)) != 1 {
		log.Printf("Admin token rejected from IP %s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"err": "bad token"})
		return
	}
	token, err := issueJWT("admin", a.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (a Admin) SetConfig(c *gin.Context) {
	guildID := c.Param("guild")
	var req struct {
		BoardChannel string `json:"boardChannel"`
		Threshold    *int   `json:"threshold"`
		TimeoutDays  *int   `json:"timeoutDays"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	if req.BoardChannel != "" {
		if err := a.configs.SetMirrorChannel(guildID, req.BoardChannel); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
			return
		}
	}
	if req.Threshold != nil {
		if !a.apply(c, a.configs.SetThreshold(guildID, *req.Threshold)) {
			return
		}
	}
	if req.TimeoutDays != nil {
		if !a.apply(c, a.configs.SetTimeout(guildID, *req.TimeoutDays)) {
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a Admin) Unset(c *gin.Context) {
	guildID := c.Param("guild")
	purge := c.Query("purge") == "true"
	if err := a.configs.Unset(guildID, purge); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a Admin) apply(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, data.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
	case errors.Is(err, data.ErrNotConfigured):
		c.JSON(http.StatusNotFound, gin.H{"err": "starboard not configured"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
	}
	return false
}
