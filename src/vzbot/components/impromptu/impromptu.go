// Package impromptu maintains the impromptu-session role selector. Unlike
// the break board roles these are mutually exclusive: joining one
// notification group leaves the others.
package impromptu

import (
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/vzdc-artcc/discord-bot/src/shared/guildconfig"
	"github.com/vzdc-artcc/discord-bot/src/vzbot/components/selector"
)

type Group struct {
	Key     string
	Label   string
	RoleKey string
}

var Groups = []Group{
	{"impromptu_gnd", "Ground", guildconfig.RoleImpromptuGND},
	{"impromptu_twr", "Tower", guildconfig.RoleImpromptuTWR},
	{"impromptu_app", "Approach", guildconfig.RoleImpromptuAPP},
	{"impromptu_ctr", "Center", guildconfig.RoleImpromptuCTR},
}

type Component struct {
	session *discordgo.Session
	config  *guildconfig.Store
	pins    selector.File
}

func New(session *discordgo.Session, config *guildconfig.Store, dataDir string) *Component {
	return &Component{
		session: session,
		config:  config,
		pins:    selector.File{Path: filepath.Join(dataDir, "impromptu_selector_message_ids.json")},
	}
}

func (c *Component) Register() {
	c.session.AddHandler(c.handleReady)
	c.session.AddHandler(c.handleInteraction)
}

func (c *Component) handleReady(s *discordgo.Session, _ *discordgo.Ready) {
	for _, guildID := range c.config.Guilds() {
		channelID, ok := c.config.Channel(guildID, guildconfig.ChannelImpromptu)
		if !ok {
			continue
		}
		if err := selector.Ensure(s, c.pins, guildID, channelID, selectorMessage); err != nil {
			log.Printf("impromptu: failed to ensure selector in guild %d: %v", guildID, err)
		}
	}
}

func selectorMessage() *discordgo.MessageSend {
	var buttons []discordgo.MessageComponent
	for _, g := range Groups {
		buttons = append(buttons, discordgo.Button{
			Style:    discordgo.SecondaryButton,
			Label:    g.Label,
			CustomID: "impromptu:" + g.Key,
		})
	}
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title: "Impromptu Selector",
			Description: "As a perk of being a ZDC home controller, you may join a role that our training staff " +
				"can use to alert you of an available impromptu session. These sessions will usually be the same day.\n" +
				"This will add you to a role that the training staff can ping in this channel. If you get an alert " +
				"that there is an open session, you may PM the instructor who posted. These sessions are first come " +
				"– first serve. The instructor will delete the message or react to it to indicate it has been taken.\n\n" +
				"Click the buttons below to **opt in or out** of receiving notifications for **the training that you are seeking**\n " +
				"• If you have the role, clicking the button will **remove** it.\n" +
				"• If you don't have the role, clicking the button will **add** it.",
			Color: 0xF1C40F,
		}},
		Components: []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}},
	}
}

func (c *Component) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	customID := i.MessageComponentData().CustomID
	if !strings.HasPrefix(customID, "impromptu:") {
		return
	}
	key := strings.TrimPrefix(customID, "impromptu:")
	for _, g := range Groups {
		if g.Key == key {
			c.toggle(s, i, g)
			return
		}
	}
}

func (c *Component) toggle(s *discordgo.Session, i *discordgo.InteractionCreate, g Group) {
	gid, err := strconv.ParseInt(i.GuildID, 10, 64)
	if err != nil {
		return
	}
	roleID, ok := c.config.Role(gid, g.RoleKey)
	if !ok {
		reply(s, i, "Error: Role '"+g.Label+"' not found on the server. Please contact an administrator.")
		return
	}
	roleStr := strconv.FormatInt(roleID, 10)

	if hasRole(i.Member, roleStr) {
		if err := s.GuildMemberRoleRemove(i.GuildID, i.Member.User.ID, roleStr); err != nil {
			log.Printf("impromptu: failed to remove role %s: %v", roleStr, err)
			reply(s, i, "I don't have permissions to remove that role. Please check my permissions.")
			return
		}
		reply(s, i, "You have **left** the `Impromptu "+g.Label+"` notification group.")
		return
	}

	if err := s.GuildMemberRoleAdd(i.GuildID, i.Member.User.ID, roleStr); err != nil {
		log.Printf("impromptu: failed to add role %s: %v", roleStr, err)
		reply(s, i, "I don't have permissions to add that role. Please check my permissions.")
		return
	}

	// Membership is exclusive; drop the other impromptu roles after a
	// successful add.
	for _, other := range Groups {
		if other.Key == g.Key {
			continue
		}
		otherID, ok := c.config.Role(gid, other.RoleKey)
		if !ok {
			continue
		}
		otherStr := strconv.FormatInt(otherID, 10)
		if !hasRole(i.Member, otherStr) {
			continue
		}
		if err := s.GuildMemberRoleRemove(i.GuildID, i.Member.User.ID, otherStr); err != nil {
			log.Printf("impromptu: failed to remove role %s during exclusive switch: %v", otherStr, err)
		}
	}

	reply(s, i, "You have **joined** the `Impromptu "+g.Label+"` notification group.")
}

func hasRole(m *discordgo.Member, roleID string) bool {
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

func reply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("impromptu: failed to send ephemeral reply: %v", err)
	}
}
