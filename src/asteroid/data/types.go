package data

import "time"

// Medium is the channel through which an endorsement was given. A user's
// first medium for a message is sticky: removal must name the same medium.
type Medium string

const (
	MediumOriginalReaction Medium = "original_reaction"
	MediumMirrorReaction   Medium = "mirror_reaction"
	MediumExplicit         Medium = "explicit"
)

func (m Medium) Valid() bool {
	switch m {
	case MediumOriginalReaction, MediumMirrorReaction, MediumExplicit:
		return true
	}
	return false
}

// Per-guild starboard configuration
type GuildConfig struct {
	GuildID         string `gorm:"primaryKey;size:64"`
	Threshold       int    `gorm:"not null;default:3"`
	MirrorChannelID string `gorm:"size:64;uniqueIndex;not null"`
	TimeoutDays     int    `gorm:"not null;default:0"` // 0 = transitions never freeze
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// One star from one user on one message
type Endorsement struct {
	ID         uint64 `gorm:"primaryKey"`
	EndorserID string `gorm:"size:64;not null;uniqueIndex:idx_endorser_message,priority:1"`
	MessageID  string `gorm:"size:64;not null;uniqueIndex:idx_endorser_message,priority:2;index"`
	GuildID    string `gorm:"size:64;not null;index"`
	Medium     Medium `gorm:"size:32;not null"`
	CreatedAt  time.Time
}

// A message that crossed the threshold and its copy on the board channel
type MirrorEntry struct {
	MessageID       string `gorm:"primaryKey;size:64"`
	OriginChannelID string `gorm:"size:64;not null"`
	MirrorMessageID string `gorm:"size:64;uniqueIndex;not null"`
	GuildID         string `gorm:"size:64;not null;index"`
	AuthorID        string `gorm:"size:64;not null"`
	Excerpt         string `gorm:"size:512"`
	CreatedAt       time.Time
}

// Settings
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:32;not null"`
	Value string `gorm:"size:256;not null"`
}
