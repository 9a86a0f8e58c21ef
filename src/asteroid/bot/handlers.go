package bot

import (
	"errors"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/asteroid-bot/asteroid/src/asteroid/components/award"
	"github.com/asteroid-bot/asteroid/src/asteroid/data"
)

// StarEmoji is the only reaction that counts as an endorsement.
const StarEmoji = "⭐"

func (b *Bot) handleReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("Discord bot logged in as %s", event.User.Username)
	b.registerCommands(s)
}

func (b *Bot) handleReactionAdd(s *discordgo.Session, ev *discordgo.MessageReactionAdd) {
	if ev.GuildID == "" || ev.Emoji.Name != StarEmoji || ev.UserID == s.State.User.ID {
		return
	}
	intent := award.Intent{
		GuildID:    ev.GuildID,
		EndorserID: ev.UserID,
		MessageID:  ev.MessageID,
		ChannelID:  ev.ChannelID,
		Medium:     b.reactionMedium(ev.GuildID, ev.ChannelID),
	}
	if _, err := b.engine.OnAdd(b.ctx, intent); err != nil && !errors.Is(err, data.ErrNotConfigured) {
		log.Printf("star add on %s by %s: %v", ev.MessageID, ev.UserID, err)
	}
}

func (b *Bot) handleReactionRemove(s *discordgo.Session, ev *discordgo.MessageReactionRemove) {
	if ev.GuildID == "" || ev.Emoji.Name != StarEmoji || ev.UserID == s.State.User.ID {
		return
	}
	intent := award.Intent{
		GuildID:    ev.GuildID,
		EndorserID: ev.UserID,
		MessageID:  ev.MessageID,
		ChannelID:  ev.ChannelID,
		Medium:     b.reactionMedium(ev.GuildID, ev.ChannelID),
	}
	if _, err := b.engine.OnRemove(b.ctx, intent); err != nil && !errors.Is(err, data.ErrNotConfigured) {
		log.Printf("star remove on %s by %s: %v", ev.MessageID, ev.UserID, err)
	}
}

func (b *Bot) handleMessageDelete(s *discordgo.Session, ev *discordgo.MessageDelete) {
	if ev.GuildID == "" {
		return
	}
	b.handleDeleted(ev.GuildID, ev.ChannelID, ev.ID)
}

func (b *Bot) handleMessageDeleteBulk(s *discordgo.Session, ev *discordgo.MessageDeleteBulk) {
	if ev.GuildID == "" {
		return
	}
	for _, id := range ev.Messages {
		b.handleDeleted(ev.GuildID, ev.ChannelID, id)
	}
}

func (b *Bot) handleDeleted(guildID, channelID, messageID string) {
	cfg, err := b.configs.Get(guildID)
	if err == nil && channelID == cfg.MirrorChannelID {
		// A managed board copy was deleted out-of-band; drop the registry
		// row so the original can be re-awarded.
		if err := b.engine.ReconcileMirrorDeleted(messageID); err != nil {
			log.Printf("reconcile deleted mirror %s: %v", messageID, err)
		}
		return
	}
	if err := b.engine.Forget(b.ctx, messageID); err != nil {
		log.Printf("forget %s: %v", messageID, err)
	}
}

// reactionMedium classifies a reaction by where it landed. Reactions on the
// board channel arrive as mirror-medium endorsements; the engine redirects
// them to the original message.
func (b *Bot) reactionMedium(guildID, channelID string) data.Medium {
	cfg, err := b.configs.Get(guildID)
	if err == nil && channelID == cfg.MirrorChannelID {
		return data.MediumMirrorReaction
	}
	return data.MediumOriginalReaction
}
