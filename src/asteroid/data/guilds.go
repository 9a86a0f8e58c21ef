package data

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotConfigured means no mirror channel has ever been set for the guild.
	ErrNotConfigured = errors.New("starboard is not configured for this guild")
	// ErrInvalidArgument means a threshold or timeout value is out of range.
	ErrInvalidArgument = errors.New("invalid argument")
)

const DefaultThreshold = 3

// GuildConfigs is the durable per-guild configuration store. All mutations
// are atomic relative to a single guild row.
type GuildConfigs struct {
	db *gorm.DB
}

func NewGuildConfigs(db *gorm.DB) *GuildConfigs {
	return &GuildConfigs{db: db}
}

func (g *GuildConfigs) Get(guildID string) (*GuildConfig, error) {
	var cfg GuildConfig
	if err := g.db.First(&cfg, "guild_id = ?", guildID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotConfigured
		}
		return nil, err
	}
	return &cfg, nil
}

// SetMirrorChannel creates the guild row if needed and points it at channelID.
// Threshold and timeout keep their previous values when the row already exists.
func (g *GuildConfigs) SetMirrorChannel(guildID, channelID string) error {
	cfg := GuildConfig{
		GuildID:         guildID,
		MirrorChannelID: channelID,
		Threshold:       DefaultThreshold,
	}
	return g.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"mirror_channel_id": channelID}),
	}).Create(&cfg).Error
}

// SetThreshold requires a mirror channel to have been set first; a minimum
// star count without a destination channel is meaningless.
func (g *GuildConfigs) SetThreshold(guildID string, n int) error {
	if n < 1 {
		return ErrInvalidArgument
	}
	if _, err := g.Get(guildID); err != nil {
		return err
	}
	return g.db.Model(&GuildConfig{}).Where("guild_id = ?", guildID).
		Update("threshold", n).Error
}

// SetTimeout sets the award freeze window in days. days = 0 clears the timeout.
func (g *GuildConfigs) SetTimeout(guildID string, days int) error {
	if days < 0 {
		return ErrInvalidArgument
	}
	if _, err := g.Get(guildID); err != nil {
		return err
	}
	return g.db.Model(&GuildConfig{}).Where("guild_id = ?", guildID).
		Update("timeout_days", days).Error
}

// Unset removes the guild configuration and its mirror registry rows. The
// endorsement ledger is retained for a later re-configuration unless
// purgeHistory is set.
func (g *GuildConfigs) Unset(guildID string, purgeHistory bool) error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("guild_id = ?", guildID).Delete(&GuildConfig{}).Error; err != nil {
			return err
		}
		if err := tx.Where("guild_id = ?", guildID).Delete(&MirrorEntry{}).Error; err != nil {
			return err
		}
		if purgeHistory {
			if err := tx.Where("guild_id = ?", guildID).Delete(&Endorsement{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
