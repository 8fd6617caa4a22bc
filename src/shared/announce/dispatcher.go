package announce

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/vzdc-artcc/discord-bot/src/shared/guildconfig"
)

// Field is one embed field of a prepared payload.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Payload is the fully-built message a request would send. Dry-run requests
// return it verbatim; live requests convert it to a Discord embed.
type Payload struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Color           int     `json:"color"`
	AuthorName      string  `json:"author,omitempty"`
	Footer          string  `json:"footer,omitempty"`
	ImageURL        string  `json:"image_url,omitempty"`
	URL             string  `json:"event_url,omitempty"`
	Fields          []Field `json:"fields,omitempty"`
	MessageType     string  `json:"message_type,omitempty"`
	TargetChannelID *int64  `json:"target_channel_id"`
}

// Embed converts the payload to a Discord embed.
func (p Payload) Embed() *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       p.Title,
		Description: p.Description,
		Color:       p.Color,
		URL:         p.URL,
	}
	if p.AuthorName != "" {
		e.Author = &discordgo.MessageEmbedAuthor{Name: p.AuthorName}
	}
	if p.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: p.Footer}
	}
	if p.ImageURL != "" {
		e.Image = &discordgo.MessageEmbedImage{URL: p.ImageURL}
	}
	for _, f := range p.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return e
}

// Dispatcher resolves message types against the per-guild configuration and
// builds message payloads.
type Dispatcher struct {
	Config *guildconfig.Store
}

// ResolveTargetChannel resolves the channel a message type posts to for a
// guild: the per-guild announcement-type override wins over the descriptor's
// symbolic channel lookup. Returns false for unrecognized types and for
// guilds with neither configured. An explicit channel ID in the request body
// is handled by the caller and takes precedence over both.
func (d *Dispatcher) ResolveTargetChannel(guildID int64, messageType string) (int64, bool) {
	desc, ok := Types[messageType]
	if !ok {
		return 0, false
	}

	cfg := d.Config.Guild(guildID)
	if override, ok := cfg.AnnouncementTypes[messageType]; ok && override != nil && override.ChannelID != nil {
		return *override.ChannelID, true
	}
	if v, ok := cfg.Channels[desc.ChannelKey]; ok && v != nil {
		return *v, true
	}
	return 0, false
}

// Announcement captures the caller-supplied parts of a plain announcement.
type Announcement struct {
	MessageType         string
	Title               string
	Body                string
	AuthorName          string
	AuthorRating        string
	AuthorStaffPosition string
	BannerURL           string
	URL                 string
}

// Build assembles the payload for a plain announcement. The descriptor's
// title prefix and color are applied when the type is recognized; an unknown
// type falls back to the default color and no prefix.
func Build(a Announcement) Payload {
	color := DefaultColor
	prefix := ""
	if desc, ok := Types[a.MessageType]; ok {
		color = desc.Color
		prefix = desc.TitlePrefix
	}

	title := strings.TrimSpace(prefix + " " + a.Title)

	p := Payload{
		Title:       title,
		Description: a.Body,
		Color:       color,
		AuthorName:  a.AuthorName,
		ImageURL:    a.BannerURL,
		URL:         a.URL,
		MessageType: a.MessageType,
	}

	var footerParts []string
	if a.AuthorStaffPosition != "" {
		footerParts = append(footerParts, a.AuthorStaffPosition)
	}
	if a.AuthorRating != "" {
		footerParts = append(footerParts, a.AuthorRating)
	}
	if len(footerParts) > 0 {
		p.Footer = strings.Join(footerParts, " | ")
	}
	return p
}
