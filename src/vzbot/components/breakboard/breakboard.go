// Package breakboard runs the controller break notification system: a
// persistent board message with one button per position, a modal asking how
// long the controller can wait, and per-request messages with claim/resolve
// buttons. A companion role selector lets controllers opt in to pings for
// each position.
package breakboard

import (
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/vzdc-artcc/discord-bot/src/shared/guildconfig"
	"github.com/vzdc-artcc/discord-bot/src/vzbot/components/selector"
)

// Position is one coverable position controllers can request relief for.
type Position struct {
	Key     string
	Label   string
	RoleKey string
}

var Positions = []Position{
	{"gnd_unrestricted", "Unrestricted GND", guildconfig.RoleGndUnrestricted},
	{"gnd_tier1", "Tier 1 GND", guildconfig.RoleGndTier1},
	{"twr_unrestricted", "Unrestricted TWR", guildconfig.RoleTwrUnrestricted},
	{"twr_tier1", "Tier 1 TWR", guildconfig.RoleTwrTier1},
	{"app_unrestricted", "Unrestricted APP", guildconfig.RoleAppUnrestricted},
	{"pct", "PCT", guildconfig.RolePCT},
	{"center", "Center", guildconfig.RoleCenter},
}

var waitTimeRe = regexp.MustCompile(`(?i)^\d+\s*(m|min|minute(s)?|h|hr|hour(s)?)((\s+)?\d+\s*(m|min|minute(s)?))?$`)

type Component struct {
	session   *discordgo.Session
	config    *guildconfig.Store
	boardPins selector.File
	rolePins  selector.File
}

func New(session *discordgo.Session, config *guildconfig.Store, dataDir string) *Component {
	return &Component{
		session:   session,
		config:    config,
		boardPins: selector.File{Path: filepath.Join(dataDir, "breakboard_message_ids.json")},
		rolePins:  selector.File{Path: filepath.Join(dataDir, "breakboard_selector_message_ids.json")},
	}
}

func (c *Component) Register() {
	c.session.AddHandler(c.handleReady)
	c.session.AddHandler(c.handleInteraction)
}

func (c *Component) handleReady(s *discordgo.Session, _ *discordgo.Ready) {
	for _, guildID := range c.config.Guilds() {
		channelID, ok := c.config.Channel(guildID, guildconfig.ChannelBreakBoard)
		if !ok {
			continue
		}
		if err := selector.Ensure(s, c.rolePins, guildID, channelID, roleSelectorMessage); err != nil {
			log.Printf("breakboard: failed to ensure role selector in guild %d: %v", guildID, err)
		}
		if err := selector.Ensure(s, c.boardPins, guildID, channelID, boardMessage); err != nil {
			log.Printf("breakboard: failed to ensure board message in guild %d: %v", guildID, err)
		}
	}
}

func boardMessage() *discordgo.MessageSend {
	var buttons []discordgo.MessageComponent
	for _, p := range Positions {
		buttons = append(buttons, discordgo.Button{
			Style:    discordgo.PrimaryButton,
			Label:    p.Label,
			CustomID: "break:" + p.Key,
		})
	}
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title: "Controller Break Notification System",
			Description: "Use the buttons below to request a break for specific positions.\n" +
				"- Once your request is picked up by another controller, or if it's no longer needed, " +
				"**please delete the notification message** to keep this channel clear.\n " +
				"- The message will include a 'Claim' and 'Done / Delete' button.",
			Color: 0x3498DB,
		}},
		Components: buttonRows(buttons),
	}
}

func roleSelectorMessage() *discordgo.MessageSend {
	var buttons []discordgo.MessageComponent
	for _, p := range Positions {
		buttons = append(buttons, discordgo.Button{
			Style:    discordgo.SecondaryButton,
			Label:    p.Label,
			CustomID: "breakrole:" + p.Key,
		})
	}
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title: "🔔 Controller Notification Preferences 🔔",
			Description: "Click the buttons below to **opt in or out** of receiving notifications " +
				"when controllers request a break for specific positions.\n\n" +
				"• If you have the role, clicking the button will **remove** it.\n" +
				"• If you don't have the role, clicking the button will **add** it.",
			Color: 0xF1C40F,
			Footer: &discordgo.MessageEmbedFooter{
				Text: "Your role preferences determine which break requests you see.",
			},
		}},
		Components: buttonRows(buttons),
	}
}

// buttonRows splits buttons into action rows of at most five.
func buttonRows(buttons []discordgo.MessageComponent) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	for len(buttons) > 0 {
		n := len(buttons)
		if n > 5 {
			n = 5
		}
		rows = append(rows, discordgo.ActionsRow{Components: buttons[:n]})
		buttons = buttons[n:]
	}
	return rows
}

func (c *Component) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		switch {
		case strings.HasPrefix(customID, "break:"):
			c.openBreakModal(s, i, strings.TrimPrefix(customID, "break:"))
		case strings.HasPrefix(customID, "breakrole:"):
			c.toggleRole(s, i, strings.TrimPrefix(customID, "breakrole:"))
		case strings.HasPrefix(customID, "break_claim:"):
			c.claim(s, i, strings.TrimPrefix(customID, "break_claim:"))
		case strings.HasPrefix(customID, "break_done:"):
			c.resolve(s, i, strings.TrimPrefix(customID, "break_done:"))
		}
	case discordgo.InteractionModalSubmit:
		customID := i.ModalSubmitData().CustomID
		if strings.HasPrefix(customID, "breakmodal:") {
			c.submitBreakRequest(s, i, strings.TrimPrefix(customID, "breakmodal:"))
		}
	}
}

func (c *Component) openBreakModal(s *discordgo.Session, i *discordgo.InteractionCreate, key string) {
	p, ok := positionByKey(key)
	if !ok {
		return
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: "breakmodal:" + p.Key,
			Title:    "Break Request Details",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "break_time_input",
						Label:       "How long can you wait for relief?",
						Style:       discordgo.TextInputShort,
						Placeholder: "e.g., 15 minutes, 30m, 1h, 1hr 30min",
						Required:    false,
						MaxLength:   50,
					},
				}},
			},
		},
	})
	if err != nil {
		log.Printf("breakboard: failed to open modal for %s: %v", p.Key, err)
	}
}

func (c *Component) submitBreakRequest(s *discordgo.Session, i *discordgo.InteractionCreate, key string) {
	p, ok := positionByKey(key)
	if !ok {
		return
	}

	waitRaw := ""
	for _, row := range i.ModalSubmitData().Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, comp := range ar.Components {
			if ti, ok := comp.(*discordgo.TextInput); ok && ti.CustomID == "break_time_input" {
				waitRaw = strings.TrimSpace(ti.Value)
			}
		}
	}

	waitDisplay := "no specific time"
	invalidTime := false
	if waitRaw != "" {
		if waitTimeRe.MatchString(waitRaw) {
			waitDisplay = fmt.Sprintf("for **%s**", waitRaw)
		} else {
			invalidTime = true
		}
	}

	roleID, ok := c.guildRole(i.GuildID, p.RoleKey)
	if !ok {
		ephemeralReply(s, i, "Error: Role for '"+p.Label+"' not found. Please contact an administrator.")
		return
	}

	content := fmt.Sprintf(
		"<@&%d> **%s break request!** Controller %s is requesting a break for %s %s.",
		roleID, p.Label, "<@"+i.Member.User.ID+">", p.Label, waitDisplay,
	)

	_, err := s.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
		Content: content,
		Components: []discordgo.MessageComponent{discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Style:    discordgo.SuccessButton,
				Label:    "Claim Position",
				CustomID: "break_claim:" + i.Member.User.ID,
			},
			discordgo.Button{
				Style:    discordgo.DangerButton,
				Label:    "Done / Delete",
				CustomID: "break_done:" + i.Member.User.ID,
			},
		}}},
	})
	if err != nil {
		log.Printf("breakboard: failed to send break request for %s: %v", p.Key, err)
		ephemeralReply(s, i, "Failed to send notification: "+err.Error())
		return
	}

	reply := fmt.Sprintf(
		"Notification sent for %s! You indicated you can wait %s. "+
			"This message will be deleted automatically if claimed/resolved. "+
			"You or the relieving controller can click 'Done / Delete' to remove it.",
		p.Label, waitDisplay,
	)
	if invalidTime {
		reply = fmt.Sprintf(
			"Invalid time format: `%s`. Please use formats like '15 minutes', '1h', '30m'. Sent request without specific time.\n%s",
			waitRaw, reply,
		)
	}
	ephemeralReply(s, i, reply)
}

func (c *Component) claim(s *discordgo.Session, i *discordgo.InteractionCreate, requesterID string) {
	reliever := "<@" + i.Member.User.ID + ">"

	content := fmt.Sprintf(
		"🚨 %s has claimed the break for <@%s>! Please coordinate directly.",
		reliever, requesterID,
	)
	if c.resolveGuildMember(i.GuildID, requesterID) == nil {
		content = fmt.Sprintf(
			"🚨 %s has claimed this break! The original requester is no longer in the server.",
			reliever,
		)
	}
	if _, err := s.ChannelMessageSend(i.ChannelID, content); err != nil {
		log.Printf("breakboard: failed to announce claim: %v", err)
	}

	c.disableRequestButtons(s, i, requesterID)
	ephemeralReply(s, i, "You have successfully claimed this break. The requester has been notified.")
}

func (c *Component) resolve(s *discordgo.Session, i *discordgo.InteractionCreate, requesterID string) {
	isRequester := i.Member.User.ID == requesterID
	canManage := i.Member.Permissions&discordgo.PermissionManageMessages != 0
	if !isRequester && !canManage {
		ephemeralReply(s, i, "You are not authorized to delete this message.")
		return
	}

	if err := s.ChannelMessageDelete(i.ChannelID, i.Message.ID); err != nil {
		log.Printf("breakboard: failed to delete break request message: %v", err)
		ephemeralReply(s, i, "Failed to delete message: "+err.Error())
		return
	}
	ephemeralReply(s, i, "Break request removed.")
}

// disableRequestButtons greys out a claimed request so it cannot be claimed
// twice.
func (c *Component) disableRequestButtons(s *discordgo.Session, i *discordgo.InteractionCreate, requesterID string) {
	components := []discordgo.MessageComponent{discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			Style:    discordgo.SuccessButton,
			Label:    "Claim Position",
			CustomID: "break_claim:" + requesterID,
			Disabled: true,
		},
		discordgo.Button{
			Style:    discordgo.DangerButton,
			Label:    "Done / Delete",
			CustomID: "break_done:" + requesterID,
		},
	}}}
	content := i.Message.Content
	_, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         i.Message.ID,
		Channel:    i.ChannelID,
		Content:    &content,
		Components: &components,
	})
	if err != nil {
		log.Printf("breakboard: failed to disable claim button: %v", err)
	}
}

func (c *Component) toggleRole(s *discordgo.Session, i *discordgo.InteractionCreate, key string) {
	p, ok := positionByKey(key)
	if !ok {
		return
	}
	roleID, ok := c.guildRole(i.GuildID, p.RoleKey)
	if !ok {
		ephemeralReply(s, i, "Error: Role '"+p.Label+"' not found on the server. Please contact an administrator.")
		return
	}
	roleStr := strconv.FormatInt(roleID, 10)

	hasRole := false
	for _, r := range i.Member.Roles {
		if r == roleStr {
			hasRole = true
			break
		}
	}

	if hasRole {
		if err := s.GuildMemberRoleRemove(i.GuildID, i.Member.User.ID, roleStr); err != nil {
			log.Printf("breakboard: failed to remove role %s: %v", roleStr, err)
			ephemeralReply(s, i, "I don't have permissions to remove that role. Please check my permissions.")
			return
		}
		ephemeralReply(s, i, "You have **left** the `"+p.Label+"` notification group.")
		return
	}

	if err := s.GuildMemberRoleAdd(i.GuildID, i.Member.User.ID, roleStr); err != nil {
		log.Printf("breakboard: failed to add role %s: %v", roleStr, err)
		ephemeralReply(s, i, "I don't have permissions to add that role. Please check my permissions.")
		return
	}
	ephemeralReply(s, i, "You have **joined** the `"+p.Label+"` notification group.")
}

func (c *Component) guildRole(guildID, roleKey string) (int64, bool) {
	gid, err := strconv.ParseInt(guildID, 10, 64)
	if err != nil {
		return 0, false
	}
	return c.config.Role(gid, roleKey)
}

func (c *Component) resolveGuildMember(guildID, userID string) *discordgo.Member {
	if m, err := c.session.State.Member(guildID, userID); err == nil && m != nil {
		return m
	}
	m, err := c.session.GuildMember(guildID, userID)
	if err != nil {
		return nil
	}
	return m
}

func positionByKey(key string) (Position, bool) {
	for _, p := range Positions {
		if p.Key == key {
			return p, true
		}
	}
	return Position{}, false
}

func ephemeralReply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("breakboard: failed to send ephemeral reply: %v", err)
	}
}
