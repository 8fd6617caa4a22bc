// Package eventinfo answers clicks on the evt: buttons attached to reminder
// posts with an ephemeral detail embed for the chosen event.
package eventinfo

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/vzdc-artcc/discord-bot/src/shared/announce"
	"github.com/vzdc-artcc/discord-bot/src/shared/eventstore"
	"github.com/vzdc-artcc/discord-bot/src/shared/vatsim"
)

const eventURLBase = "https://vzdc.org/events/"

type Component struct {
	session *discordgo.Session
	events  eventstore.Store
}

func New(session *discordgo.Session, events eventstore.Store) *Component {
	return &Component{session: session, events: events}
}

func (c *Component) Register() {
	c.session.AddHandler(c.handleInteraction)
}

func (c *Component) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	customID := i.MessageComponentData().CustomID
	if !strings.HasPrefix(customID, "evt:") {
		return
	}
	eventID := strings.TrimPrefix(customID, "evt:")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ev, ok := c.events.Get(ctx, eventID)
	if !ok {
		c.respond(s, i, &discordgo.InteractionResponseData{
			Content: "Details for this event are no longer available.",
			Flags:   discordgo.MessageFlagsEphemeral,
		})
		return
	}

	c.respond(s, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{detailEmbed(ev)},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

func detailEmbed(ev eventstore.Event) *discordgo.MessageEmbed {
	title := ev.EventName
	if title == "" {
		title = "Event " + ev.EventID
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		URL:         eventURLBase + ev.EventID,
		Description: ev.EventDescription,
		Color:       announce.Types["event-reminder"].Color,
	}
	if ev.EventBannerURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: ev.EventBannerURL}
	}

	if v := timeValue(ev.EventStartTime); v != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Start", Value: v, Inline: true})
	}
	if v := timeValue(ev.EventEndTime); v != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "End", Value: v, Inline: true})
	}
	if ev.EventType != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Type", Value: ev.EventType, Inline: true})
	}
	if ev.EventHost != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Host", Value: ev.EventHost, Inline: true})
	}
	if len(ev.FeaturedFields) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Featured",
			Value: strings.Join(ev.FeaturedFields, ", "),
		})
	}
	return embed
}

func timeValue(raw string) string {
	if raw == "" {
		return ""
	}
	t, err := vatsim.ParseLogonTime(raw)
	if err != nil {
		return raw + " (UTC)"
	}
	return fmt.Sprintf("<t:%d:F>", t.Unix())
}

func (c *Component) respond(s *discordgo.Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.Printf("eventinfo: failed to respond to interaction: %v", err)
	}
}
