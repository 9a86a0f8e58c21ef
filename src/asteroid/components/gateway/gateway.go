// Package gateway wraps the Discord REST surface the award engine depends
// on, folding transport failures into the two classes the engine cares
// about: the target is gone, or the platform is unavailable.
package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/asteroid-bot/asteroid/src/asteroid/components/present"
)

var (
	// ErrGone means the target message was deleted or is forbidden. Expected
	// entropy, not an error condition.
	ErrGone = errors.New("target message no longer exists")
	// ErrUnavailable means a send/edit/delete failed for any other reason.
	ErrUnavailable = errors.New("mirror gateway unavailable")
)

// Discord is the production gateway over a discordgo session.
type Discord struct {
	session *discordgo.Session
}

func NewDiscord(session *discordgo.Session) *Discord {
	return &Discord{session: session}
}

func (d *Discord) Fetch(channelID, messageID string) (*discordgo.Message, error) {
	msg, err := d.session.ChannelMessage(channelID, messageID)
	if err != nil {
		return nil, mapErr("fetch", err)
	}
	return msg, nil
}

func (d *Discord) Send(channelID string, p present.Payload) (string, error) {
	msg, err := d.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: p.Content,
		Embeds:  []*discordgo.MessageEmbed{p.Embed},
	})
	if err != nil {
		return "", mapErr("send", err)
	}
	return msg.ID, nil
}

func (d *Discord) Edit(channelID, messageID string, p present.Payload) error {
	edit := discordgo.NewMessageEdit(channelID, messageID).
		SetContent(p.Content).
		SetEmbeds([]*discordgo.MessageEmbed{p.Embed})
	if _, err := d.session.ChannelMessageEditComplex(edit); err != nil {
		return mapErr("edit", err)
	}
	return nil
}

func (d *Discord) Delete(channelID, messageID string) error {
	if err := d.session.ChannelMessageDelete(channelID, messageID); err != nil {
		return mapErr("delete", err)
	}
	return nil
}

// History pages backwards through a channel, newest first.
func (d *Discord) History(channelID, beforeID string, limit int) ([]*discordgo.Message, error) {
	msgs, err := d.session.ChannelMessages(channelID, limit, beforeID, "", "")
	if err != nil {
		return nil, mapErr("history", err)
	}
	return msgs, nil
}

// Reactions lists every user who reacted with emoji on a message.
func (d *Discord) Reactions(channelID, messageID, emoji string) ([]*discordgo.User, error) {
	var all []*discordgo.User
	after := ""
	for {
		page, err := d.session.MessageReactions(channelID, messageID, emoji, 100, "", after)
		if err != nil {
			return nil, mapErr("reactions", err)
		}
		all = append(all, page...)
		if len(page) < 100 {
			return all, nil
		}
		after = page[len(page)-1].ID
	}
}

func mapErr(op string, err error) error {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		switch rest.Response.StatusCode {
		case http.StatusNotFound, http.StatusForbidden:
			return fmt.Errorf("%s: %w", op, ErrGone)
		}
	}
	return fmt.Errorf("%s: %w: %s", op, ErrUnavailable, err)
}
