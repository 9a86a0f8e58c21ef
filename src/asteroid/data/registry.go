package data

import (
	"errors"

	"gorm.io/gorm"
)

// Mirrors is the durable one-to-one map between original messages and their
// copies on the board channel. Rows are owned exclusively by the award engine.
type Mirrors struct {
	db *gorm.DB
}

func NewMirrors(db *gorm.DB) *Mirrors {
	return &Mirrors{db: db}
}

// ByMessage returns the entry for an original message, or nil when the
// message has no mirror.
func (m *Mirrors) ByMessage(messageID string) (*MirrorEntry, error) {
	var e MirrorEntry
	if err := m.db.First(&e, "message_id = ?", messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// ByMirror resolves a board message back to its entry, or nil when the board
// message is not managed here (foreign mirror).
func (m *Mirrors) ByMirror(mirrorMessageID string) (*MirrorEntry, error) {
	var e MirrorEntry
	if err := m.db.First(&e, "mirror_message_id = ?", mirrorMessageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (m *Mirrors) Create(e *MirrorEntry) error {
	return m.db.Create(e).Error
}

func (m *Mirrors) Delete(messageID string) error {
	return m.db.Where("message_id = ?", messageID).Delete(&MirrorEntry{}).Error
}

func (m *Mirrors) DeleteByMirror(mirrorMessageID string) error {
	return m.db.Where("mirror_message_id = ?", mirrorMessageID).Delete(&MirrorEntry{}).Error
}

// Random picks one awarded message for a guild, or nil when the board is empty.
func (m *Mirrors) Random(guildID string) (*MirrorEntry, error) {
	var e MirrorEntry
	err := m.db.Where("guild_id = ?", guildID).Order("RAND()").Limit(1).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (m *Mirrors) CountForGuild(guildID string) (int64, error) {
	var n int64
	err := m.db.Model(&MirrorEntry{}).Where("guild_id = ?", guildID).Count(&n).Error
	return n, err
}

func (m *Mirrors) ListForGuild(guildID string, limit, offset int) ([]MirrorEntry, error) {
	var entries []MirrorEntry
	err := m.db.Where("guild_id = ?", guildID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&entries).Error
	return entries, err
}
