package webserver

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"

	"github.com/vzdc-artcc/discord-bot/src/shared/announce"
	"github.com/vzdc-artcc/discord-bot/src/shared/eventstore"
)

const (
	maxFieldsPerEmbed = 25
	maxFieldName      = 256
	maxFieldValue     = 1024
	maxButtonLabel    = 80
)

// ellipsize caps a string at max bytes, backing up to a rune boundary so a
// multi-byte character is never split.
func ellipsize(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

type eventReminderRequest struct {
	Events    []eventstore.Event `json:"events"`
	GuildID   int64              `json:"guild_id"`
	ChannelID *int64             `json:"channel_id"`
	DryRun    bool               `json:"dry_run"`
}

// reminderChunk is one message of a (possibly multi-message) reminder batch:
// an embed of up to 25 event fields plus up to 5 detail buttons.
type reminderChunk struct {
	payload announce.Payload
	buttons []discordgo.MessageComponent
	banner  string // cached banner file path, may be empty
}

// EventReminder posts a batch event summary, one embed field per event, with
// interactive buttons that serve event details back on click. Serves both
// the regular and the weekly reminder routes.
func (h *Handlers) EventReminder(c *gin.Context) {
	var req eventReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing JSON payload"})
		return
	}
	if len(req.Events) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "`events` must be a non-empty list"})
		return
	}

	// Stash details so the evt: buttons can answer later. Non-critical.
	for _, ev := range req.Events {
		if strings.TrimSpace(ev.EventID) == "" {
			continue
		}
		if err := h.Events.Put(c.Request.Context(), ev); err != nil {
			log.Printf("api: failed to store event %s for button handling: %v", ev.EventID, err)
		}
	}

	channelID, haveChannel := h.resolveChannel(req.ChannelID, req.GuildID, "event-reminder")
	if !haveChannel && !req.DryRun {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No channel configured for event reminders"})
		return
	}

	chunks := h.buildReminderChunks(req.Events)

	if req.DryRun {
		payloads := make([]announce.Payload, 0, len(chunks))
		for _, ch := range chunks {
			if haveChannel {
				ch.payload.TargetChannelID = &channelID
			}
			payloads = append(payloads, ch.payload)
		}
		c.JSON(http.StatusOK, gin.H{"status": "dry_run", "payloads": payloads})
		return
	}

	var messageIDs []int64
	for _, ch := range chunks {
		id, err := h.sendReminderChunk(channelID, ch)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":  "Failed to deliver embeds to Discord",
				"detail": err.Error(),
			})
			return
		}
		messageIDs = append(messageIDs, id)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"channel_id":  channelID,
		"message_ids": messageIDs,
	})
}

func (h *Handlers) buildReminderChunks(events []eventstore.Event) []reminderChunk {
	desc := announce.Types["event-reminder"]
	total := len(events)
	totalChunks := (total + maxFieldsPerEmbed - 1) / maxFieldsPerEmbed

	var chunks []reminderChunk
	for start := 0; start < total; start += maxFieldsPerEmbed {
		end := start + maxFieldsPerEmbed
		if end > total {
			end = total
		}
		batch := events[start:end]

		title := strings.TrimSpace(desc.TitlePrefix + " Weekly Events")
		if totalChunks > 1 {
			title = fmt.Sprintf("%s (%d/%d)", title, start/maxFieldsPerEmbed+1, totalChunks)
		}

		chunk := reminderChunk{payload: announce.Payload{
			Title:       title,
			Description: fmt.Sprintf("Showing %d event(s) — total %d this week.", len(batch), total),
			Color:       desc.Color,
			MessageType: "event-reminder",
		}}

		for _, ev := range batch {
			name, value := eventField(ev)
			chunk.payload.Fields = append(chunk.payload.Fields, announce.Field{Name: name, Value: value})
		}

		// First banner in the batch illustrates the whole chunk. A cached
		// local copy is attached when the download works, otherwise the
		// remote URL is embedded directly.
		for _, ev := range batch {
			if ev.EventBannerURL == "" {
				continue
			}
			bannerURL := h.resolveImageURL(ev.EventBannerURL)
			chunk.payload.ImageURL = bannerURL
			if path, err := h.fetchBanner(ev.EventID, bannerURL); err == nil {
				chunk.banner = path
			} else {
				log.Printf("api: banner cache miss for event %s: %v", ev.EventID, err)
			}
			break
		}

		chunk.buttons = eventButtons(batch)
		chunks = append(chunks, chunk)
	}
	return chunks
}

// eventField renders one event as an embed field: name with the time window,
// value with description, metadata, and the event page link.
func eventField(ev eventstore.Event) (string, string) {
	name := ev.EventName
	if name == "" {
		name = "(Unnamed event)"
	}
	name += eventTimeSuffix(ev.EventStartTime, ev.EventEndTime)
	name = ellipsize(name, maxFieldName)

	desc := ev.EventDescription
	if desc == "" {
		desc = "(No description)"
	}
	parts := []string{desc}

	var meta []string
	if ev.EventType != "" {
		meta = append(meta, "Type: "+ev.EventType)
	}
	if ev.EventHost != "" {
		meta = append(meta, "Host: "+ev.EventHost)
	}
	if len(meta) > 0 {
		parts = append(parts, strings.Join(meta, " • "))
	}
	if len(ev.FeaturedFields) > 0 {
		parts = append(parts, "Featured: "+strings.Join(ev.FeaturedFields, ", "))
	}
	if id := strings.TrimSpace(ev.EventID); id != "" {
		parts = append(parts, fmt.Sprintf("[Event Page](%s%s)", eventURLBase, id))
	}

	value := ellipsize(strings.Join(parts, "\n"), maxFieldValue-4)
	return name, value
}

func eventTimeSuffix(startRaw, endRaw string) string {
	start, startErr := parseOptionalTime(startRaw)
	end, endErr := parseOptionalTime(endRaw)
	haveStart := startErr == nil && !start.IsZero()
	haveEnd := endErr == nil && !end.IsZero()

	switch {
	case haveStart && haveEnd:
		return fmt.Sprintf(" — <t:%d:F> to <t:%d:F>", start.Unix(), end.Unix())
	case haveStart:
		return fmt.Sprintf(" — <t:%d:F>", start.Unix())
	case haveEnd:
		return fmt.Sprintf(" — <t:%d:F>", end.Unix())
	case startRaw != "" && endRaw != "":
		return fmt.Sprintf(" — %s to %s (UTC)", startRaw, endRaw)
	case startRaw != "":
		return fmt.Sprintf(" — starts %s (UTC)", startRaw)
	case endRaw != "":
		return fmt.Sprintf(" — ends %s (UTC)", endRaw)
	}
	return ""
}

// eventButtons builds up to five detail buttons for a chunk. Clicks are
// answered by the event-info component using the stored event details.
func eventButtons(events []eventstore.Event) []discordgo.MessageComponent {
	var buttons []discordgo.MessageComponent
	for _, ev := range events {
		if len(buttons) == 5 {
			break
		}
		id := strings.TrimSpace(ev.EventID)
		if id == "" {
			continue
		}
		label := ev.EventName
		if label == "" {
			label = id
		}
		label = ellipsize(label, maxButtonLabel)
		buttons = append(buttons, discordgo.Button{
			Style:    discordgo.PrimaryButton,
			Label:    label,
			CustomID: "evt:" + id,
		})
	}
	if len(buttons) == 0 {
		return nil
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}

func (h *Handlers) sendReminderChunk(channelID int64, chunk reminderChunk) (int64, error) {
	v, err := h.Bridge.Run(func(ctx context.Context) (interface{}, error) {
		msg := &discordgo.MessageSend{Components: chunk.buttons}

		embed := chunk.payload.Embed()
		if chunk.banner != "" {
			f, err := os.Open(chunk.banner)
			if err == nil {
				defer f.Close()
				msg.Files = []*discordgo.File{{Name: "banner.png", Reader: f}}
				embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://banner.png"}
			} else {
				log.Printf("api: failed to open cached banner %s: %v", chunk.banner, err)
			}
		}
		msg.Embeds = []*discordgo.MessageEmbed{embed}

		sent, err := h.Session.ChannelMessageSendComplex(strconv.FormatInt(channelID, 10), msg)
		if err != nil {
			return nil, err
		}
		return sent.ID, nil
	})
	if err != nil {
		return 0, err
	}
	id, _ := strconv.ParseInt(v.(string), 10, 64)
	return id, nil
}
