package webserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"github.com/asteroid-bot/asteroid/src/asteroid/data"
)

const maxPageSize = 100

type Boards struct {
	configs   *data.GuildConfigs
	ledger    *data.Ledger
	mirrors   *data.Mirrors
	sanitizer *bluemonday.Policy
}

func NewBoards(db *gorm.DB) Boards {
	return Boards{
		configs:   data.NewGuildConfigs(db),
		ledger:    data.NewLedger(db),
		mirrors:   data.NewMirrors(db),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (b Boards) Stats(c *gin.Context) {
	guildID := c.Param("guild")

	cfg, err := b.configs.Get(guildID)
	if errors.Is(err, data.ErrNotConfigured) {
		c.JSON(http.StatusNotFound, gin.H{"err": "starboard not configured"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	stars, starred, err := b.ledger.GuildTotals(guildID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	awarded, err := b.mirrors.CountForGuild(guildID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"guildId":      guildID,
		"boardChannel": cfg.MirrorChannelID,
		"threshold":    cfg.Threshold,
		"timeoutDays":  cfg.TimeoutDays,
		"stars":        stars,
		"starred":      starred,
		"awarded":      awarded,
	})
}

func (b Boards) Awarded(c *gin.Context) {
	guildID := c.Param("guild")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > maxPageSize {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := b.mirrors.ListForGuild(guildID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		count, err := b.ledger.Count(e.MessageID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
			return
		}
		out = append(out, gin.H{
			"messageId":     e.MessageID,
			"channelId":     e.OriginChannelID,
			"boardMsgId":    e.MirrorMessageID,
			"authorId":      e.AuthorID,
			"stars":         count,
			"excerpt":       b.sanitizer.Sanitize(e.Excerpt),
			"awardedAtUnix": e.CreatedAt.Unix(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"entries": out, "limit": limit, "offset": offset})
}

func (b Boards) Random(c *gin.Context) {
	guildID := c.Param("guild")

	entry, err := b.mirrors.Random(guildID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "nothing awarded yet"})
		return
	}
	count, err := b.ledger.Count(entry.MessageID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"messageId":  entry.MessageID,
		"channelId":  entry.OriginChannelID,
		"boardMsgId": entry.MirrorMessageID,
		"authorId":   entry.AuthorID,
		"stars":      count,
		"excerpt":    b.sanitizer.Sanitize(entry.Excerpt),
	})
}
