// Package auditlog mirrors server activity into each guild's logging
// channel: member joins and departures, bans, role changes, and message
// edits and deletions.
package auditlog

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/vzdc-artcc/discord-bot/src/shared/guildconfig"
)

const maxFieldLength = 1900

// failureCooldown stops a broken logging channel from generating an error
// line per event.
const failureCooldown = time.Minute

type Component struct {
	session *discordgo.Session
	config  *guildconfig.Store

	mu          sync.Mutex
	lastFailure map[string]time.Time
}

func New(session *discordgo.Session, config *guildconfig.Store) *Component {
	return &Component{
		session:     session,
		config:      config,
		lastFailure: map[string]time.Time{},
	}
}

func (c *Component) Register() {
	c.session.AddHandler(c.handleMemberJoin)
	c.session.AddHandler(c.handleMemberRemove)
	c.session.AddHandler(c.handleBanAdd)
	c.session.AddHandler(c.handleBanRemove)
	c.session.AddHandler(c.handleMemberUpdate)
	c.session.AddHandler(c.handleMessageUpdate)
	c.session.AddHandler(c.handleMessageDelete)
}

func truncate(s string) string {
	if len(s) <= maxFieldLength {
		return s
	}
	cut := maxFieldLength - 14
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...[truncated]"
}

func (c *Component) logChannel(guildID string) (string, bool) {
	gid, err := strconv.ParseInt(guildID, 10, 64)
	if err != nil {
		return "", false
	}
	channelID, ok := c.config.Channel(gid, guildconfig.ChannelLogging)
	if !ok {
		return "", false
	}
	return strconv.FormatInt(channelID, 10), true
}

func (c *Component) send(guildID string, embed *discordgo.MessageEmbed) {
	channelID, ok := c.logChannel(guildID)
	if !ok {
		return
	}

	c.mu.Lock()
	if last, ok := c.lastFailure[guildID]; ok && time.Since(last) < failureCooldown {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	embed.Timestamp = time.Now().UTC().Format(time.RFC3339)
	if _, err := c.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		log.Printf("auditlog: failed to send to channel %s in guild %s: %v", channelID, guildID, err)
		c.mu.Lock()
		c.lastFailure[guildID] = time.Now()
		c.mu.Unlock()
	}
}

func userLabel(u *discordgo.User) string {
	if u == nil {
		return "(unknown)"
	}
	return fmt.Sprintf("%s (ID %s)", u.Username, u.ID)
}

func (c *Component) handleMemberJoin(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	desc := fmt.Sprintf("Member: %s joined.", userLabel(m.User))
	if created, err := discordgo.SnowflakeTimestamp(m.User.ID); err == nil {
		desc += " Account created: " + created.UTC().Format(time.RFC3339)
	}
	embed := &discordgo.MessageEmbed{
		Title:       "🟢 Member Join",
		Color:       0x2ECC71,
		Description: truncate(desc),
	}
	if avatar := m.User.AvatarURL(""); avatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: avatar}
	}
	c.send(m.GuildID, embed)
}

func (c *Component) handleMemberRemove(_ *discordgo.Session, m *discordgo.GuildMemberRemove) {
	c.send(m.GuildID, &discordgo.MessageEmbed{
		Title:       "🔴 Member Removed",
		Color:       0xE74C3C,
		Description: truncate("Member: " + userLabel(m.User)),
	})
}

func (c *Component) handleBanAdd(_ *discordgo.Session, b *discordgo.GuildBanAdd) {
	c.send(b.GuildID, &discordgo.MessageEmbed{
		Title:       "🔨 Member Banned",
		Color:       0x992D22,
		Description: truncate("User: " + userLabel(b.User)),
	})
}

func (c *Component) handleBanRemove(_ *discordgo.Session, b *discordgo.GuildBanRemove) {
	c.send(b.GuildID, &discordgo.MessageEmbed{
		Title:       "🟡 Member Unbanned",
		Color:       0xF1C40F,
		Description: truncate("User: " + userLabel(b.User)),
	})
}

func (c *Component) handleMemberUpdate(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	if m.BeforeUpdate == nil {
		return
	}
	added, removed := diffRoles(m.BeforeUpdate.Roles, m.Roles)
	if len(added) == 0 && len(removed) == 0 {
		return
	}

	parts := []string{"Member: " + userLabel(m.User)}
	if len(added) > 0 {
		parts = append(parts, "Added roles: "+strings.Join(c.roleNames(s, m.GuildID, added), ", "))
	}
	if len(removed) > 0 {
		parts = append(parts, "Removed roles: "+strings.Join(c.roleNames(s, m.GuildID, removed), ", "))
	}
	c.send(m.GuildID, &discordgo.MessageEmbed{
		Title:       "🧾 Member Roles Updated",
		Color:       0x9B59B6,
		Description: truncate(strings.Join(parts, "\n")),
	})
}

func diffRoles(before, after []string) (added, removed []string) {
	beforeSet := map[string]bool{}
	for _, r := range before {
		beforeSet[r] = true
	}
	afterSet := map[string]bool{}
	for _, r := range after {
		afterSet[r] = true
		if !beforeSet[r] {
			added = append(added, r)
		}
	}
	for _, r := range before {
		if !afterSet[r] {
			removed = append(removed, r)
		}
	}
	return added, removed
}

func (c *Component) roleNames(s *discordgo.Session, guildID string, roleIDs []string) []string {
	names := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		if role, err := s.State.Role(guildID, id); err == nil {
			names = append(names, role.Name)
		} else {
			names = append(names, id)
		}
	}
	return names
}

func (c *Component) handleMessageUpdate(s *discordgo.Session, m *discordgo.MessageUpdate) {
	if m.GuildID == "" || m.Author == nil || m.Author.Bot {
		return
	}
	before := "(content unavailable)"
	if m.BeforeUpdate != nil && m.BeforeUpdate.Content != "" {
		before = m.BeforeUpdate.Content
	}
	if before == m.Content {
		return
	}

	c.send(m.GuildID, &discordgo.MessageEmbed{
		Title: "✏️ Message Edited",
		Color: 0x3498DB,
		Description: truncate(fmt.Sprintf("Author: %s in <#%s>", userLabel(m.Author), m.ChannelID)),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Before", Value: truncate(before)},
			{Name: "After", Value: truncate(orPlaceholder(m.Content))},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Author: %s | Message ID: %s", m.Author.ID, m.ID),
		},
	})
}

func (c *Component) handleMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	if m.GuildID == "" {
		return
	}

	author := "(unknown)"
	content := "(content unavailable)"
	if m.BeforeDelete != nil {
		if m.BeforeDelete.Author != nil {
			if m.BeforeDelete.Author.Bot {
				return
			}
			author = userLabel(m.BeforeDelete.Author)
		}
		if m.BeforeDelete.Content != "" {
			content = m.BeforeDelete.Content
		}
	}

	c.send(m.GuildID, &discordgo.MessageEmbed{
		Title:       "🗑️ Message Deleted",
		Color:       0x95A5A6,
		Description: truncate(fmt.Sprintf("Author: %s in <#%s>", author, m.ChannelID)),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Content", Value: truncate(content)},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Message ID: " + m.ID,
		},
	})
}

func orPlaceholder(s string) string {
	if s == "" {
		return "(no content)"
	}
	return s
}
