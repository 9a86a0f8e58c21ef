// Package award owns the starboard state machine: the endorsement ledger
// drives the mirror registry toward "mirrored iff count >= threshold",
// except where a guild timeout has frozen transitions.
package award

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"

	"github.com/asteroid-bot/asteroid/src/asteroid/components/gateway"
	"github.com/asteroid-bot/asteroid/src/asteroid/components/present"
	"github.com/asteroid-bot/asteroid/src/asteroid/data"
)

// Intent is the typed endorsement event constructed once at the boundary
// (reaction handler, context menu) and passed by value through the engine.
type Intent struct {
	GuildID    string
	EndorserID string
	MessageID  string
	ChannelID  string
	Medium     data.Medium
	Message    *discordgo.Message // optional prefetch of the target message
}

type Status int

const (
	StatusRecorded Status = iota
	StatusAlreadyEndorsed
	StatusNotEndorsed
	StatusWrongMedium
)

func (s Status) String() string {
	switch s {
	case StatusRecorded:
		return "recorded"
	case StatusAlreadyEndorsed:
		return "already endorsed"
	case StatusNotEndorsed:
		return "not endorsed"
	case StatusWrongMedium:
		return "endorsed through a different medium"
	}
	return "unknown"
}

// Outcome reports the ledger result and the live count after an operation.
type Outcome struct {
	Status Status
	Count  int64
}

type ConfigSource interface {
	Get(guildID string) (*data.GuildConfig, error)
}

type Ledger interface {
	Add(e data.Endorsement) (data.AddOutcome, error)
	Remove(endorserID, messageID string, medium data.Medium) (data.RemoveOutcome, error)
	Count(messageID string) (int64, error)
	Purge(messageID string) error
}

type Registry interface {
	ByMessage(messageID string) (*data.MirrorEntry, error)
	ByMirror(mirrorMessageID string) (*data.MirrorEntry, error)
	Create(e *data.MirrorEntry) error
	Delete(messageID string) error
}

type Gateway interface {
	Fetch(channelID, messageID string) (*discordgo.Message, error)
	Send(channelID string, p present.Payload) (string, error)
	Edit(channelID, messageID string, p present.Payload) error
	Delete(channelID, messageID string) error
}

type Config struct {
	Configs  ConfigSource
	Ledger   Ledger
	Registry Registry
	Gateway  Gateway
	Redis    *redis.Client    // optional award event stream
	Now      func() time.Time // test hook, defaults to time.Now
}

type Engine struct {
	configs  ConfigSource
	ledger   Ledger
	registry Registry
	gateway  Gateway
	rdb      *redis.Client
	now      func() time.Time
	locks    *messageLocks
}

func New(cfg Config) *Engine {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		configs:  cfg.Configs,
		ledger:   cfg.Ledger,
		registry: cfg.Registry,
		gateway:  cfg.Gateway,
		rdb:      cfg.Redis,
		now:      now,
		locks:    newMessageLocks(),
	}
}

// OnAdd applies an endorsement-add intent. When the returned error wraps a
// gateway failure the ledger mutation has still been committed; the star is
// durable even when the board channel is not reachable.
func (e *Engine) OnAdd(ctx context.Context, intent Intent) (Outcome, error) {
	cfg, err := e.configs.Get(intent.GuildID)
	if err != nil {
		return Outcome{}, err
	}
	if err := e.redirect(cfg, &intent); err != nil {
		return Outcome{}, err
	}

	e.locks.lock(intent.MessageID)
	defer e.locks.unlock(intent.MessageID)

	added, err := e.ledger.Add(data.Endorsement{
		EndorserID: intent.EndorserID,
		MessageID:  intent.MessageID,
		GuildID:    intent.GuildID,
		Medium:     intent.Medium,
	})
	if err != nil {
		return Outcome{}, err
	}
	if added == data.AddAlreadyExists {
		return Outcome{Status: StatusAlreadyEndorsed}, nil
	}

	count, err := e.ledger.Count(intent.MessageID)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Status: StatusRecorded, Count: count}
	if count < int64(cfg.Threshold) {
		return out, nil
	}

	entry, err := e.registry.ByMessage(intent.MessageID)
	if err != nil {
		return out, err
	}
	switch {
	case entry != nil:
		return out, e.refreshMirror(ctx, cfg, entry, count, intent.Message)
	case !e.frozen(cfg, intent.MessageID):
		return out, e.createMirror(ctx, cfg, intent, count)
	}
	// Timeout-locked and never awarded: the star is recorded, no mirror.
	return out, nil
}

// OnRemove applies an endorsement-remove intent, the mirror image of OnAdd.
func (e *Engine) OnRemove(ctx context.Context, intent Intent) (Outcome, error) {
	cfg, err := e.configs.Get(intent.GuildID)
	if err != nil {
		return Outcome{}, err
	}
	if err := e.redirect(cfg, &intent); err != nil {
		return Outcome{}, err
	}

	e.locks.lock(intent.MessageID)
	defer e.locks.unlock(intent.MessageID)

	removed, err := e.ledger.Remove(intent.EndorserID, intent.MessageID, intent.Medium)
	if err != nil {
		return Outcome{}, err
	}
	switch removed {
	case data.RemoveNotFound:
		return Outcome{Status: StatusNotEndorsed}, nil
	case data.RemoveWrongMedium:
		return Outcome{Status: StatusWrongMedium}, nil
	}

	count, err := e.ledger.Count(intent.MessageID)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Status: StatusRecorded, Count: count}

	entry, err := e.registry.ByMessage(intent.MessageID)
	if err != nil {
		return out, err
	}
	worthy := count >= int64(cfg.Threshold)
	locked := e.frozen(cfg, intent.MessageID)

	switch {
	case entry != nil && (worthy || locked):
		// Numerically unawarded messages stay mirrored once locked; only the
		// displayed count changes.
		return out, e.refreshMirror(ctx, cfg, entry, count, intent.Message)
	case entry == nil && worthy && !locked:
		// Still award-worthy but never mirrored (threshold was raised since).
		// Create now so awarded == mirrored regardless of event direction.
		return out, e.createMirror(ctx, cfg, intent, count)
	case entry != nil:
		if err := e.registry.Delete(entry.MessageID); err != nil {
			return out, err
		}
		// The registry row is gone either way; board-channel housekeeping is
		// best effort.
		if err := e.gateway.Delete(cfg.MirrorChannelID, entry.MirrorMessageID); err != nil && !errors.Is(err, gateway.ErrGone) {
			return out, err
		}
		e.publish(ctx, "award_removed", entry, count)
	}
	return out, nil
}

// Forget handles upstream deletion of an origin message: every endorsement
// is purged and any mirror torn down. Calling it twice is a no-op the
// second time.
func (e *Engine) Forget(ctx context.Context, messageID string) error {
	e.locks.lock(messageID)
	defer e.locks.unlock(messageID)

	if err := e.ledger.Purge(messageID); err != nil {
		return err
	}
	entry, err := e.registry.ByMessage(messageID)
	if err != nil || entry == nil {
		return err
	}
	if err := e.registry.Delete(messageID); err != nil {
		return err
	}
	cfg, err := e.configs.Get(entry.GuildID)
	if err != nil {
		if errors.Is(err, data.ErrNotConfigured) {
			return nil
		}
		return err
	}
	if err := e.gateway.Delete(cfg.MirrorChannelID, entry.MirrorMessageID); err != nil && !errors.Is(err, gateway.ErrGone) {
		return err
	}
	e.publish(ctx, "award_removed", entry, 0)
	return nil
}

// ReconcileMirrorDeleted drops the registry row for a board message deleted
// out-of-band. Endorsements stay; the next qualifying event recreates the
// mirror.
func (e *Engine) ReconcileMirrorDeleted(mirrorMessageID string) error {
	entry, err := e.registry.ByMirror(mirrorMessageID)
	if err != nil || entry == nil {
		return err
	}
	e.locks.lock(entry.MessageID)
	defer e.locks.unlock(entry.MessageID)
	return e.registry.Delete(entry.MessageID)
}

// redirect re-targets an event naming a managed board message onto the
// original it mirrors. Board messages not managed here are taken at face
// value (foreign mirror).
func (e *Engine) redirect(cfg *data.GuildConfig, intent *Intent) error {
	if intent.ChannelID != cfg.MirrorChannelID {
		return nil
	}
	entry, err := e.registry.ByMirror(intent.MessageID)
	if err != nil || entry == nil {
		return err
	}
	intent.MessageID = entry.MessageID
	intent.ChannelID = entry.OriginChannelID
	intent.Message = nil
	return nil
}

// frozen reports whether award transitions for the message are locked by the
// guild timeout. The message age derives from its snowflake; counts keep
// updating either way.
func (e *Engine) frozen(cfg *data.GuildConfig, messageID string) bool {
	if cfg.TimeoutDays <= 0 {
		return false
	}
	ts, err := discordgo.SnowflakeTimestamp(messageID)
	if err != nil {
		return false
	}
	return e.now().After(ts.Add(time.Duration(cfg.TimeoutDays) * 24 * time.Hour))
}

func (e *Engine) refreshMirror(ctx context.Context, cfg *data.GuildConfig, entry *data.MirrorEntry, count int64, prefetched *discordgo.Message) error {
	msg, err := e.message(prefetched, entry.OriginChannelID, entry.MessageID, entry.GuildID)
	if err != nil {
		return err
	}
	p := present.Build(count, msg)
	if err := e.gateway.Edit(cfg.MirrorChannelID, entry.MirrorMessageID, p); err != nil {
		if errors.Is(err, gateway.ErrGone) {
			// Mirror deleted out-of-band. Reconcile the registry instead of
			// leaving an orphaned row; the next event recreates the mirror.
			return e.registry.Delete(entry.MessageID)
		}
		return err
	}
	e.publish(ctx, "award_updated", entry, count)
	return nil
}

func (e *Engine) createMirror(ctx context.Context, cfg *data.GuildConfig, intent Intent, count int64) error {
	msg, err := e.message(intent.Message, intent.ChannelID, intent.MessageID, intent.GuildID)
	if err != nil {
		return err
	}
	p := present.Build(count, msg)
	mirrorID, err := e.gateway.Send(cfg.MirrorChannelID, p)
	if err != nil {
		return err
	}
	// Registered only after the gateway confirms the send: a crash in
	// between leaves an unregistered board message, never a registered
	// ghost.
	entry := &data.MirrorEntry{
		MessageID:       intent.MessageID,
		OriginChannelID: intent.ChannelID,
		MirrorMessageID: mirrorID,
		GuildID:         intent.GuildID,
		AuthorID:        authorID(msg),
		Excerpt:         present.Excerpt(msg),
	}
	if err := e.registry.Create(entry); err != nil {
		return fmt.Errorf("register mirror: %w", err)
	}
	e.publish(ctx, "award_created", entry, count)
	return nil
}

func (e *Engine) message(prefetched *discordgo.Message, channelID, messageID, guildID string) (*discordgo.Message, error) {
	if prefetched != nil && prefetched.ID == messageID {
		return prefetched, nil
	}
	msg, err := e.gateway.Fetch(channelID, messageID)
	if err != nil {
		return nil, err
	}
	if msg.GuildID == "" {
		// REST fetches omit guild_id; jump links need it.
		msg.GuildID = guildID
	}
	return msg, nil
}

func (e *Engine) publish(ctx context.Context, kind string, entry *data.MirrorEntry, count int64) {
	if e.rdb == nil {
		return
	}
	err := data.PublishAward(ctx, e.rdb, map[string]interface{}{
		"kind":    kind,
		"guild":   entry.GuildID,
		"message": entry.MessageID,
		"mirror":  entry.MirrorMessageID,
		"author":  entry.AuthorID,
		"count":   count,
	})
	if err != nil {
		log.Printf("publish %s event: %v", kind, err)
	}
}

func authorID(msg *discordgo.Message) string {
	if msg.Author != nil {
		return msg.Author.ID
	}
	return ""
}
