// Package importer replays a foreign board channel's history into the
// ledger and registry, so a community migrating from another starboard bot
// keeps its awarded messages synchronized from then on.
package importer

import (
	"context"
	"errors"
	"regexp"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/asteroid-bot/asteroid/src/asteroid/components/gateway"
	"github.com/asteroid-bot/asteroid/src/asteroid/components/present"
	"github.com/asteroid-bot/asteroid/src/asteroid/data"
)

// boardLine matches the fixed board text format:
//
//	<emoji> [**N**] <#channel> ID: <id>
var boardLine = regexp.MustCompile(`^\S+ \[\*\*(\d+)\*\*\] <#(\d+)> ID: (\d+)`)

const (
	pageSize = 100
	// StarEmoji is the reaction counted during replay.
	StarEmoji = "⭐"
)

type Outcome int

const (
	OutcomeImported Outcome = iota
	OutcomeUnparsable
	OutcomeNotFound
	OutcomeCountMismatch
)

func (o Outcome) String() string {
	switch o {
	case OutcomeImported:
		return "imported"
	case OutcomeUnparsable:
		return "unparsable"
	case OutcomeNotFound:
		return "message not found"
	case OutcomeCountMismatch:
		return "count mismatch"
	}
	return "unknown"
}

// Report is emitted once per scanned board message.
type Report struct {
	JobID          string
	BoardMessageID string
	MessageID      string
	Outcome        Outcome
	Claimed        int
	Computed       int
}

type Summary struct {
	JobID         string
	Scanned       int
	Imported      int
	Unparsable    int
	NotFound      int
	CountMismatch int
}

type Gateway interface {
	History(channelID, beforeID string, limit int) ([]*discordgo.Message, error)
	Fetch(channelID, messageID string) (*discordgo.Message, error)
	Reactions(channelID, messageID, emoji string) ([]*discordgo.User, error)
}

type Applier interface {
	ApplyImport(endorsements []data.Endorsement, entry *data.MirrorEntry) error
}

type Importer struct {
	gateway Gateway
	applier Applier
}

func New(gw Gateway, applier Applier) *Importer {
	return &Importer{gateway: gw, applier: applier}
}

// Run walks the board channel newest-first and replays each recognized
// entry as its own atomic unit. Cancelling the context stops between
// messages; everything already applied stays applied, and a re-run is
// idempotent. The progress callback, when non-nil, receives one report per
// scanned message.
func (im *Importer) Run(ctx context.Context, guildID, boardChannelID string, progress func(Report)) (Summary, error) {
	sum := Summary{JobID: uuid.NewString()}
	before := ""
	for {
		page, err := im.gateway.History(boardChannelID, before, pageSize)
		if err != nil {
			return sum, err
		}
		if len(page) == 0 {
			return sum, nil
		}
		for _, boardMsg := range page {
			select {
			case <-ctx.Done():
				return sum, ctx.Err()
			default:
			}

			rep, err := im.replay(guildID, boardChannelID, boardMsg)
			if err != nil {
				return sum, err
			}
			rep.JobID = sum.JobID
			sum.note(rep)
			if progress != nil {
				progress(rep)
			}
		}
		before = page[len(page)-1].ID
		if len(page) < pageSize {
			return sum, nil
		}
	}
}

func (im *Importer) replay(guildID, boardChannelID string, boardMsg *discordgo.Message) (Report, error) {
	rep := Report{BoardMessageID: boardMsg.ID, Outcome: OutcomeUnparsable}

	m := boardLine.FindStringSubmatch(boardMsg.Content)
	if m == nil {
		return rep, nil
	}
	rep.Claimed, _ = strconv.Atoi(m[1])
	originChannelID, originID := m[2], m[3]
	rep.MessageID = originID

	orig, err := im.gateway.Fetch(originChannelID, originID)
	if err != nil {
		if errors.Is(err, gateway.ErrGone) {
			rep.Outcome = OutcomeNotFound
			return rep, nil
		}
		return rep, err
	}

	// A user may have starred the original, the board copy, or both; the
	// union is the replayed truth and the first seen medium sticks.
	endorsers := make(map[string]data.Medium)
	origStars, err := im.gateway.Reactions(originChannelID, originID, StarEmoji)
	if err != nil && !errors.Is(err, gateway.ErrGone) {
		return rep, err
	}
	for _, u := range origStars {
		endorsers[u.ID] = data.MediumOriginalReaction
	}
	boardStars, err := im.gateway.Reactions(boardChannelID, boardMsg.ID, StarEmoji)
	if err != nil && !errors.Is(err, gateway.ErrGone) {
		return rep, err
	}
	for _, u := range boardStars {
		if _, ok := endorsers[u.ID]; !ok {
			endorsers[u.ID] = data.MediumMirrorReaction
		}
	}
	rep.Computed = len(endorsers)

	endorsements := make([]data.Endorsement, 0, len(endorsers))
	for id, medium := range endorsers {
		endorsements = append(endorsements, data.Endorsement{
			EndorserID: id,
			MessageID:  originID,
			GuildID:    guildID,
			Medium:     medium,
		})
	}
	entry := &data.MirrorEntry{
		MessageID:       originID,
		OriginChannelID: originChannelID,
		MirrorMessageID: boardMsg.ID,
		GuildID:         guildID,
		AuthorID:        authorID(orig),
		Excerpt:         present.Excerpt(orig),
	}
	if err := im.applier.ApplyImport(endorsements, entry); err != nil {
		return rep, err
	}

	// Imported either way; a computed count that disagrees with the claimed
	// one is reported so operators can investigate.
	if rep.Computed != rep.Claimed {
		rep.Outcome = OutcomeCountMismatch
	} else {
		rep.Outcome = OutcomeImported
	}
	return rep, nil
}

func (s *Summary) note(rep Report) {
	s.Scanned++
	switch rep.Outcome {
	case OutcomeImported:
		s.Imported++
	case OutcomeUnparsable:
		s.Unparsable++
	case OutcomeNotFound:
		s.NotFound++
	case OutcomeCountMismatch:
		s.CountMismatch++
	}
}

func authorID(msg *discordgo.Message) string {
	if msg.Author != nil {
		return msg.Author.ID
	}
	return ""
}
