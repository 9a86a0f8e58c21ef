package data

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ImportApplier records the replayed history of one board message as a
// single transaction, so an interrupted bulk import never leaves a message
// half-applied. Rows that already exist are left untouched.
type ImportApplier struct {
	db *gorm.DB
}

func NewImportApplier(db *gorm.DB) *ImportApplier {
	return &ImportApplier{db: db}
}

func (a *ImportApplier) ApplyImport(endorsements []Endorsement, entry *MirrorEntry) error {
	return a.db.Transaction(func(tx *gorm.DB) error {
		for i := range endorsements {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&endorsements[i]).Error; err != nil {
				return err
			}
		}
		if entry != nil {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
