package data

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AddOutcome int

const (
	AddInserted AddOutcome = iota
	AddAlreadyExists
)

type RemoveOutcome int

const (
	RemoveRemoved RemoveOutcome = iota
	RemoveNotFound
	RemoveWrongMedium
)

// Ledger is the durable set of (endorser, message, medium) facts and the
// source of truth for star counts. Uniqueness is enforced on
// (endorser, message) regardless of medium.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Add records an endorsement. A second endorsement for the same
// (endorser, message) pair is rejected even under a different medium.
func (l *Ledger) Add(e Endorsement) (AddOutcome, error) {
	res := l.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&e)
	if res.Error != nil {
		return AddAlreadyExists, res.Error
	}
	if res.RowsAffected == 0 {
		return AddAlreadyExists, nil
	}
	return AddInserted, nil
}

// Remove deletes the endorsement matching the exact medium. A record held
// under a different medium reports RemoveWrongMedium so callers can produce
// a precise user-facing message.
func (l *Ledger) Remove(endorserID, messageID string, medium Medium) (RemoveOutcome, error) {
	outcome := RemoveNotFound
	err := l.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("endorser_id = ? AND message_id = ? AND medium = ?",
			endorserID, messageID, medium).Delete(&Endorsement{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			outcome = RemoveRemoved
			return nil
		}
		var n int64
		if err := tx.Model(&Endorsement{}).
			Where("endorser_id = ? AND message_id = ?", endorserID, messageID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			outcome = RemoveWrongMedium
		}
		return nil
	})
	return outcome, err
}

// Count derives the live star count. It is never stored, so the displayed
// number and the ledger cannot diverge.
func (l *Ledger) Count(messageID string) (int64, error) {
	var n int64
	err := l.db.Model(&Endorsement{}).Where("message_id = ?", messageID).Count(&n).Error
	return n, err
}

// Purge removes every endorsement for a message (upstream deletion).
func (l *Ledger) Purge(messageID string) error {
	return l.db.Where("message_id = ?", messageID).Delete(&Endorsement{}).Error
}

// GuildTotals reports total stars seen and distinct starred messages.
func (l *Ledger) GuildTotals(guildID string) (stars, messages int64, err error) {
	row := l.db.Model(&Endorsement{}).
		Select("count(*), count(distinct message_id)").
		Where("guild_id = ?", guildID).Row()
	err = row.Scan(&stars, &messages)
	return stars, messages, err
}
