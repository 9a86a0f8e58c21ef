// Package present renders an awarded message into its board payload. It is
// a pure transform over (count, message) and does no I/O.
package present

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	// descriptionLimit caps the quoted message body inside the embed.
	descriptionLimit = 2048
	// quoteLimit caps any secondary quoted text (reply previews).
	quoteLimit = 120
	// ExcerptLimit caps the excerpt stored alongside a mirror entry.
	ExcerptLimit = 500
)

type Payload struct {
	Content string
	Embed   *discordgo.MessageEmbed
}

// Build produces the board rendition of a message at a given star count.
// The content line follows the fixed pattern the importer parses, so boards
// written by this bot can be re-imported.
func Build(count int64, msg *discordgo.Message) Payload {
	embed := &discordgo.MessageEmbed{
		Color:       Color(count),
		Description: Truncate(msg.Content, descriptionLimit),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Original",
				Value: fmt.Sprintf("[Jump to message](%s)", jumpURL(msg)),
			},
		},
	}
	if msg.Author != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    displayName(msg.Author),
			IconURL: msg.Author.AvatarURL(""),
		}
	}
	if !msg.Timestamp.IsZero() {
		embed.Timestamp = msg.Timestamp.Format(time.RFC3339)
	}
	if n := len(msg.Attachments); n > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Attachments",
			Value: attachmentSummary(msg.Attachments),
		})
	}
	if ref := msg.ReferencedMessage; ref != nil && ref.Author != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Replying to " + displayName(ref.Author),
			Value: replyPreview(ref),
		})
	}

	return Payload{
		Content: fmt.Sprintf("%s [**%d**] <#%s> ID: %s", StarEmoji(count), count, msg.ChannelID, msg.ID),
		Embed:   embed,
	}
}

// Excerpt is the truncated body stored with a mirror entry so the web API
// can serve content without Discord access.
func Excerpt(msg *discordgo.Message) string {
	return Truncate(msg.Content, ExcerptLimit)
}

// Color interpolates from white toward yellow as the count grows by draining
// the blue channel. Monotonic and saturating.
func Color(count int64) int {
	blue := 1024/(count+4) - 20
	if blue < 0 {
		blue = 0
	}
	if blue > 255 {
		blue = 255
	}
	return 0xffff00 | int(blue)
}

// StarEmoji escalates across fixed count bands.
func StarEmoji(count int64) string {
	switch {
	case count < 5:
		return "⭐"
	case count < 10:
		return "🌟"
	case count < 25:
		return "💫"
	default:
		return "✨"
	}
}

// Truncate cuts s to at most limit runes, marking the cut with an ellipsis.
func Truncate(s string, limit int) string {
	if limit < 1 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func jumpURL(msg *discordgo.Message) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", msg.GuildID, msg.ChannelID, msg.ID)
}

func displayName(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

func attachmentSummary(atts []*discordgo.MessageAttachment) string {
	if len(atts) == 1 {
		return fmt.Sprintf("1 attachment: %s", Truncate(atts[0].Filename, quoteLimit))
	}
	return fmt.Sprintf("%d attachments, first: %s", len(atts), Truncate(atts[0].Filename, quoteLimit))
}

func replyPreview(ref *discordgo.Message) string {
	if ref.Content == "" {
		return "*no text content*"
	}
	return Truncate(ref.Content, quoteLimit)
}
