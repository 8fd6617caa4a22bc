package webserver

import (
	"context"
	"log"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/vzdc-artcc/discord-bot/src/shared/eventlog"
)

// sendMessage delivers a message through the bridge and returns the posted
// message ID.
func (h *Handlers) sendMessage(channelID int64, msg *discordgo.MessageSend) (int64, error) {
	v, err := h.Bridge.Run(func(ctx context.Context) (interface{}, error) {
		sent, err := h.Session.ChannelMessageSendComplex(strconv.FormatInt(channelID, 10), msg)
		if err != nil {
			return nil, err
		}
		return sent.ID, nil
	})
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(v.(string), 10, 64)
	if err != nil {
		log.Printf("api: non-numeric message ID %q from send", v)
		return 0, nil
	}
	return id, nil
}

func (h *Handlers) sendEmbed(channelID int64, embed *discordgo.MessageEmbed) (int64, error) {
	return h.sendMessage(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
}

// deleteOutcome distinguishes the expected-to-sometimes-fail branches of a
// best-effort delete from a clean one.
type deleteOutcome int

const (
	deleteDone deleteOutcome = iota
	deleteSkipped
	deleteFailed
)

// recordPosting replaces any earlier posting stored under the same derived
// key. The superseded message gets a best-effort delete through deletePrev;
// the new entry is recorded even when that delete fails, so the log always
// reflects the latest post.
func recordPosting(el eventlog.Log, guildID int64, key string, entry eventlog.Entry, deletePrev func(eventlog.Entry) deleteOutcome) error {
	entries := el.Load(guildID)
	if prev, ok := entries[key]; ok {
		deletePrev(prev)
	}
	entries[key] = entry
	return el.Save(guildID, entries)
}

// deletePrevious removes the message recorded in a superseded event-log
// entry. Fully best effort: a missing channel, missing message, or
// permissions failure is logged and reported as an outcome, never an error.
func (h *Handlers) deletePrevious(entry eventlog.Entry) deleteOutcome {
	if entry.ChannelID == 0 || entry.MessageID == 0 {
		return deleteSkipped
	}

	_, err := h.Bridge.Run(func(ctx context.Context) (interface{}, error) {
		return nil, h.Session.ChannelMessageDelete(
			strconv.FormatInt(entry.ChannelID, 10),
			strconv.FormatInt(entry.MessageID, 10),
		)
	})
	if err != nil {
		log.Printf("api: failed to delete superseded message %d in channel %d: %v",
			entry.MessageID, entry.ChannelID, err)
		return deleteFailed
	}
	return deleteDone
}
