// Package commands registers the bot's application commands: a latency check
// and a METAR lookup backed by the Aviation Weather Center data API.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/vzdc-artcc/discord-bot/src/shared/awc"
)

type Component struct {
	session *discordgo.Session
	weather *awc.Client
	// guildID restricts command registration to one guild so changes show up
	// immediately during development; empty registers globally.
	guildID  string
	syncOnce sync.Once
}

func New(session *discordgo.Session, weather *awc.Client, guildID string) *Component {
	return &Component{session: session, weather: weather, guildID: guildID}
}

func (c *Component) Register() {
	c.session.AddHandler(c.handleReady)
	c.session.AddHandler(c.handleInteraction)
}

func definitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Check the bot's latency",
		},
		{
			Name:        "weather",
			Description: "Aviation weather lookups",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "metar",
				Description: "Fetch the latest METAR for an airport",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "icao",
					Description: "Airport ICAO code (e.g. KIAD)",
					Required:    true,
				}},
			}},
		},
	}
}

func (c *Component) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	c.syncOnce.Do(func() {
		cmds, err := s.ApplicationCommandBulkOverwrite(r.User.ID, c.guildID, definitions())
		if err != nil {
			log.Printf("commands: failed to register application commands: %v", err)
			return
		}
		scope := "globally"
		if c.guildID != "" {
			scope = "to guild " + c.guildID
		}
		log.Printf("commands: registered %d application commands %s", len(cmds), scope)
	})
}

func (c *Component) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	switch data.Name {
	case "ping":
		c.ping(s, i)
	case "weather":
		if len(data.Options) > 0 && data.Options[0].Name == "metar" {
			icao := data.Options[0].Options[0].StringValue()
			c.metar(s, i, icao)
		}
	}
}

func (c *Component) ping(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("Pong! Latency: %dms", s.HeartbeatLatency().Milliseconds()),
		},
	})
	if err != nil {
		log.Printf("commands: ping response failed: %v", err)
	}
}

func (c *Component) metar(s *discordgo.Session, i *discordgo.InteractionCreate, icao string) {
	// The AWC API can be slow; defer so the interaction doesn't expire.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		log.Printf("commands: metar defer failed: %v", err)
		return
	}

	station := strings.ToUpper(strings.TrimSpace(icao))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	report, err := c.weather.Metar(ctx, station)
	if err != nil {
		msg := fmt.Sprintf("Failed to fetch the METAR for **%s**. Please try again later.", station)
		if errors.Is(err, awc.ErrNoReport) {
			msg = fmt.Sprintf("No METAR found for **%s**. Check the ICAO code and try again.", station)
		} else {
			log.Printf("commands: metar fetch for %s failed: %v", station, err)
		}
		c.followup(s, i, &discordgo.WebhookParams{Content: msg})
		return
	}

	c.followup(s, i, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{metarEmbed(station, report)},
	})
}

func (c *Component) followup(s *discordgo.Session, i *discordgo.InteractionCreate, params *discordgo.WebhookParams) {
	if _, err := s.FollowupMessageCreate(i.Interaction, true, params); err != nil {
		log.Printf("commands: metar followup failed: %v", err)
	}
}

func metarEmbed(station string, m *awc.Metar) *discordgo.MessageEmbed {
	raw := m.RawOb
	if raw == "" {
		raw = "N/A"
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Raw METAR", Value: raw},
		{Name: "Report Time", Value: formatReportTime(m.ReportTime), Inline: true},
		{Name: "Altimeter", Value: formatAltimeter(m.Altim), Inline: true},
		{Name: "Temperature", Value: formatCelsius(m.Temp), Inline: true},
		{Name: "Dewpoint", Value: formatCelsius(m.Dewp), Inline: true},
		{Name: "Wind", Value: formatWind(m.Wdir, m.Wspd, m.Gust), Inline: true},
		{Name: "Visibility", Value: formatVisibility(m.Visib), Inline: true},
	}
	if m.Cover != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Cloud Cover", Value: m.Cover, Inline: true})
	}
	if m.WxString != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Precipitation", Value: m.WxString, Inline: true})
	}
	fields = append(fields, &discordgo.MessageEmbedField{Name: "Clouds", Value: formatClouds(m.Clouds)})

	title := fmt.Sprintf("METAR for %s", station)
	if m.FltCat != "" {
		title = fmt.Sprintf("METAR for %s (%s)", station, m.FltCat)
	}

	return &discordgo.MessageEmbed{
		Title:     title,
		Color:     awc.CategoryColor(m.FltCat),
		Fields:    fields,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: "vZDC"},
	}
}

// asFloat normalizes the API's loosely typed numeric fields. Strings like
// "VRB" or "10+" are not numeric and report false.
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// formatReportTime renders the observation time as a Discord timestamp. The
// API has served both "2006-01-02 15:04:05" and RFC 3339 shapes.
func formatReportTime(raw string) string {
	if raw == "" {
		return "Unknown"
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return fmt.Sprintf("<t:%d:F>", t.Unix())
		}
	}
	return raw
}

func formatAltimeter(v interface{}) string {
	hpa, ok := asFloat(v)
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.2f inHg", awc.HpaToInHg(hpa))
}

func formatCelsius(v interface{}) string {
	c, ok := asFloat(v)
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%d°C", int(math.Round(c)))
}

func formatWind(dir, speed, gust interface{}) string {
	spd, ok := asFloat(speed)
	if !ok {
		return "N/A"
	}
	if spd == 0 {
		return "Calm"
	}

	heading := "VRB"
	if d, ok := asFloat(dir); ok {
		heading = fmt.Sprintf("%03d°", int(d))
	}
	out := fmt.Sprintf("%s, %d kts", heading, int(spd))
	if g, ok := asFloat(gust); ok && g > 0 {
		out += fmt.Sprintf(", gusting %d kts", int(g))
	}
	return out
}

// formatVisibility renders statute miles. Values of 1000 or more are assumed
// to be meters from an international station and get converted.
func formatVisibility(v interface{}) string {
	if s, ok := v.(string); ok {
		if f, ok := asFloat(s); ok {
			return fmt.Sprintf("%.1f SM", f)
		}
		if s == "" {
			return "N/A"
		}
		return s + " SM"
	}
	f, ok := asFloat(v)
	if !ok {
		return "N/A"
	}
	if f >= 1000 {
		const metersPerMile = 1609.34
		return fmt.Sprintf("%.1f SM (%d m)", f/metersPerMile, int(f))
	}
	return fmt.Sprintf("%.1f SM", f)
}

func formatClouds(clouds []awc.Cloud) string {
	if len(clouds) == 0 {
		return "None"
	}
	lines := make([]string, 0, len(clouds))
	for _, layer := range clouds {
		base := "N/A"
		if b, ok := asFloat(layer.Base); ok {
			base = fmt.Sprintf("%d ft", int(b))
		}
		lines = append(lines, fmt.Sprintf("Cover: %s, Bases: %s", layer.Cover, base))
	}
	return strings.Join(lines, "\n")
}
