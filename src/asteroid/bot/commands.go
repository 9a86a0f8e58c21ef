package bot

import (
	"errors"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/asteroid-bot/asteroid/src/asteroid/components/award"
	"github.com/asteroid-bot/asteroid/src/asteroid/components/gateway"
	"github.com/asteroid-bot/asteroid/src/asteroid/components/importer"
	"github.com/asteroid-bot/asteroid/src/asteroid/components/present"
	"github.com/asteroid-bot/asteroid/src/asteroid/data"
)

var minimumOne = float64(1)

var applicationCommands = []*discordgo.ApplicationCommand{
	{
		Name:        "starboard",
		Description: "Starboard configuration and statistics",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "config",
				Description: "Change configuration; no options unconfigures the starboard",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionChannel,
						Name:        "channel",
						Description: "Board channel awarded messages are resent to",
					},
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "minimum",
						Description: "Minimum star count before a message is awarded",
						MinValue:    &minimumOne,
					},
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "timeout",
						Description: "Days after which a message's award state freezes; 0 disables",
					},
					{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "purge-history",
						Description: "When unconfiguring, also purge recorded stars",
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "info",
				Description: "See some server-specific starboard statistics",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "random",
				Description: "See a random starred message",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "import",
				Description: "Replay another bot's board channel into this starboard",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionChannel,
						Name:        "channel",
						Description: "The board channel to import",
						Required:    true,
					},
				},
			},
		},
	},
	{
		Name: "Add Star",
		Type: discordgo.MessageApplicationCommand,
	},
	{
		Name: "Remove Star",
		Type: discordgo.MessageApplicationCommand,
	},
}

func (b *Bot) registerCommands(s *discordgo.Session) {
	for _, cmd := range applicationCommands {
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, "", cmd); err != nil {
			log.Printf("register command %q: %v", cmd.Name, err)
		}
	}
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand || i.GuildID == "" {
		return
	}
	d := i.ApplicationCommandData()
	switch d.Name {
	case "starboard":
		if len(d.Options) == 0 {
			return
		}
		sub := d.Options[0]
		switch sub.Name {
		case "config":
			b.handleConfig(s, i, sub)
		case "info":
			b.handleInfo(s, i)
		case "random":
			b.handleRandom(s, i)
		case "import":
			b.handleImport(s, i, sub)
		}
	case "Add Star":
		b.handleStarAction(s, i, true)
	case "Remove Star":
		b.handleStarAction(s, i, false)
	}
}

func (b *Bot) handleConfig(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	if !hasManageChannels(i) {
		respondEphemeral(s, i, "You need Manage Channels to configure the starboard.")
		return
	}

	var channelID string
	var minimum, timeout *int64
	purge := false
	for _, o := range sub.Options {
		switch o.Name {
		case "channel":
			channelID = o.Value.(string)
		case "minimum":
			v := o.IntValue()
			minimum = &v
		case "timeout":
			v := o.IntValue()
			timeout = &v
		case "purge-history":
			purge = o.BoolValue()
		}
	}

	if channelID == "" && minimum == nil && timeout == nil {
		if err := b.configs.Unset(i.GuildID, purge); err != nil {
			log.Printf("unset config for %s: %v", i.GuildID, err)
			respondEphemeral(s, i, "Something went wrong, try again.")
			return
		}
		respondEphemeral(s, i, "Starboard unconfigured.")
		return
	}

	// Channel first: minimum and timeout require a configured guild row.
	if channelID != "" {
		ch, err := s.Channel(channelID)
		if err != nil || ch.GuildID != i.GuildID {
			respondEphemeral(s, i, "That channel is not in this server.")
			return
		}
		if err := b.configs.SetMirrorChannel(i.GuildID, channelID); err != nil {
			log.Printf("set board channel for %s: %v", i.GuildID, err)
			respondEphemeral(s, i, "Something went wrong, try again.")
			return
		}
	}
	if minimum != nil {
		if msg, ok := b.applyConfig(b.configs.SetThreshold(i.GuildID, int(*minimum)), "The minimum star count must be at least 1."); !ok {
			respondEphemeral(s, i, msg)
			return
		}
	}
	if timeout != nil {
		if msg, ok := b.applyConfig(b.configs.SetTimeout(i.GuildID, int(*timeout)), "The timeout cannot be negative."); !ok {
			respondEphemeral(s, i, msg)
			return
		}
	}
	respondEphemeral(s, i, "ok")
}

// applyConfig maps store errors onto user-facing text.
func (b *Bot) applyConfig(err error, invalidMsg string) (string, bool) {
	switch {
	case err == nil:
		return "", true
	case errors.Is(err, data.ErrInvalidArgument):
		return invalidMsg, false
	case errors.Is(err, data.ErrNotConfigured):
		return "Set a board channel first.", false
	default:
		log.Printf("apply config: %v", err)
		return "Something went wrong, try again.", false
	}
}

func (b *Bot) handleInfo(s *discordgo.Session, i *discordgo.InteractionCreate) {
	stars, starred, err := b.ledger.GuildTotals(i.GuildID)
	if err != nil {
		log.Printf("guild totals for %s: %v", i.GuildID, err)
		respondEphemeral(s, i, "Something went wrong, try again.")
		return
	}
	msg := fmt.Sprintf("Hi, I am asteroid ^_^\nI have seen %d stars and %d starred messages.\n", stars, starred)

	cfg, err := b.configs.Get(i.GuildID)
	switch {
	case errors.Is(err, data.ErrNotConfigured):
		msg += "The starboard is toggled off right now."
	case err != nil:
		log.Printf("get config for %s: %v", i.GuildID, err)
		respondEphemeral(s, i, "Something went wrong, try again.")
		return
	default:
		awarded, _ := b.mirrors.CountForGuild(i.GuildID)
		msg += fmt.Sprintf("When messages reach %d ⭐, they will be resent to <#%s>. Right now there are %d messages there.",
			cfg.Threshold, cfg.MirrorChannelID, awarded)
		if cfg.TimeoutDays > 0 {
			msg += fmt.Sprintf(" Messages older than %d days keep their current award state.", cfg.TimeoutDays)
		}
	}
	respond(s, i, msg)
}

func (b *Bot) handleRandom(s *discordgo.Session, i *discordgo.InteractionCreate) {
	entry, err := b.mirrors.Random(i.GuildID)
	if err != nil {
		log.Printf("random entry for %s: %v", i.GuildID, err)
		respondEphemeral(s, i, "Something went wrong, try again.")
		return
	}
	if entry == nil {
		respondEphemeral(s, i, "Nothing has been awarded here yet.")
		return
	}
	count, err := b.ledger.Count(entry.MessageID)
	if err != nil {
		log.Printf("count for %s: %v", entry.MessageID, err)
		respondEphemeral(s, i, "Something went wrong, try again.")
		return
	}
	msg, err := b.gateway.Fetch(entry.OriginChannelID, entry.MessageID)
	if err != nil {
		respondEphemeral(s, i, "The message I picked seems to be gone, try again.")
		return
	}
	msg.GuildID = i.GuildID

	p := present.Build(count, msg)
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: p.Content,
			Embeds:  []*discordgo.MessageEmbed{p.Embed},
		},
	})
	if err != nil {
		log.Printf("interaction respond: %v", err)
	}
}

func (b *Bot) handleStarAction(s *discordgo.Session, i *discordgo.InteractionCreate, add bool) {
	d := i.ApplicationCommandData()
	target := d.TargetID
	msg := d.Resolved.Messages[target]
	userID := interactionUserID(i)
	if userID == "" || msg == nil {
		return
	}
	if msg.ChannelID == "" {
		msg.ChannelID = i.ChannelID
	}
	if msg.GuildID == "" {
		msg.GuildID = i.GuildID
	}

	// Policy checks live here, not in the engine: it only aggregates.
	if add && msg.Author != nil && msg.Author.ID == userID {
		respondEphemeral(s, i, "You cannot star your own message.")
		return
	}
	if add && !b.rateLimiter.CanUse(userID) {
		respondEphemeral(s, i, fmt.Sprintf("Please wait %.0f seconds before starring again.",
			b.rateLimiter.TimeUntilNext(userID).Seconds()))
		return
	}

	intent := award.Intent{
		GuildID:    i.GuildID,
		EndorserID: userID,
		MessageID:  target,
		ChannelID:  msg.ChannelID,
		Medium:     data.MediumExplicit,
		Message:    msg,
	}

	var out award.Outcome
	var err error
	if add {
		out, err = b.engine.OnAdd(b.ctx, intent)
	} else {
		out, err = b.engine.OnRemove(b.ctx, intent)
	}
	respondEphemeral(s, i, starActionText(out, err, add))
}

func starActionText(out award.Outcome, err error, add bool) string {
	if err != nil {
		switch {
		case errors.Is(err, data.ErrNotConfigured):
			return "The starboard is not configured on this server."
		case errors.Is(err, gateway.ErrUnavailable):
			// The star itself is durable; only the board update failed.
			return "Your star is recorded, but the board could not be updated right now."
		default:
			log.Printf("star action: %v", err)
			return "Something went wrong, try again."
		}
	}
	switch out.Status {
	case award.StatusAlreadyEndorsed:
		return "You have already starred that message."
	case award.StatusNotEndorsed:
		return "You had not starred that message."
	case award.StatusWrongMedium:
		return "That star was given as a reaction; remove the reaction instead."
	}
	if add {
		return fmt.Sprintf("Starred — it now has %d ⭐.", out.Count)
	}
	return fmt.Sprintf("Unstarred — it now has %d ⭐.", out.Count)
}

func (b *Bot) handleImport(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	if !hasManageChannels(i) {
		respondEphemeral(s, i, "You need Manage Channels to import a board.")
		return
	}
	if len(sub.Options) == 0 {
		return
	}
	channelID := sub.Options[0].Value.(string)

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		log.Printf("interaction respond: %v", err)
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		sum, err := b.importer.Run(b.ctx, i.GuildID, channelID, func(rep importer.Report) {
			if rep.Outcome != importer.OutcomeImported && rep.Outcome != importer.OutcomeUnparsable {
				log.Printf("import %s: board message %s: %s", rep.JobID, rep.BoardMessageID, rep.Outcome)
			}
		})
		content := fmt.Sprintf(
			"Import %s finished: %d scanned, %d imported, %d count mismatches, %d originals missing, %d unparsable.",
			sum.JobID, sum.Scanned, sum.Imported, sum.CountMismatch, sum.NotFound, sum.Unparsable)
		if err != nil {
			content = fmt.Sprintf("Import %s stopped after %d messages: %v", sum.JobID, sum.Scanned, err)
		}
		_, ferr := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		})
		if ferr != nil {
			log.Printf("import followup: %v", ferr)
		}
	}()
}

func hasManageChannels(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionManageChannels != 0
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	return ""
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		log.Printf("interaction respond: %v", err)
	}
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("interaction respond: %v", err)
	}
}
