// Package welcome greets new members: an embed in the guild's welcome
// channel plus an onboarding direct message. Both are best effort.
package welcome

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/vzdc-artcc/discord-bot/src/shared/guildconfig"
)

const onboardDM = "Welcome to vZDC! We're excited to have you join us as a controller in one of the busiest " +
	"and most complex airspaces on VATSIM. You're now part of a dedicated team of virtual controllers " +
	"committed to excellence, professionalism, and supporting one another. To get started:\n\n" +
	"- **You are authorized to work any unrestricted position up to your current rating without further training.** *(Not applicable for OBS rated controllers)*\n\n" +
	"- **Review our publications**, including SOPs and reference materials, by heading to the **\"Publications\"** section in the top navigation bar.\n\n" +
	"- **Familiarize yourself with our General Operating Policy and Training Policy** — both are essential to understanding how things run at ZDC.\n\n" +
	"- **Request your first training assignment** by clicking your name in the top-right corner of the site, selecting your **profile**, and scrolling to the **\"Assigned Trainers\"** section. The training assignment notification will be sent via email.\n\n" +
	"- If you have any questions, check out the **ARTCC Staff** page under the **\"Controllers\"** section in the top navigation bar. Our staff is here to help and happy to assist with anything you need.\n\n" +
	"We're thrilled to have you onboard. **Welcome home to the nation's capital!**"

type Component struct {
	session *discordgo.Session
	config  *guildconfig.Store
}

func New(session *discordgo.Session, config *guildconfig.Store) *Component {
	return &Component{session: session, config: config}
}

func (c *Component) Register() {
	c.session.AddHandler(c.handleMemberJoin)
}

func (c *Component) handleMemberJoin(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User.Bot {
		return
	}
	c.sendChannelWelcome(s, m)
	c.sendOnboardDM(s, m)
}

func (c *Component) sendChannelWelcome(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	gid, err := strconv.ParseInt(m.GuildID, 10, 64)
	if err != nil {
		return
	}
	channelID, ok := c.config.Channel(gid, guildconfig.ChannelWelcome)
	if !ok {
		return
	}

	name := m.User.GlobalName
	if name == "" {
		name = m.User.Username
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Welcome to vZDC, %s!", name),
		Description: fmt.Sprintf("Welcome <@%s>!\n\n", m.User.ID) +
			"Welcome to the vZDC Discord. Thanks for being part of the community.\n\n" +
			"We're excited to have you join us as a controller in one of the busiest and most complex " +
			"airspaces on VATSIM. You're now part of a dedicated team of virtual controllers committed to " +
			"excellence, professionalism, and supporting one another.\n\n" +
			"We're thrilled to have you onboard. **Welcome home to the nation's capital!**",
		Color:     0xE74C3C,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: "vZDC"},
	}
	if avatar := m.User.AvatarURL(""); avatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: avatar}
	}
	if created, err := discordgo.SnowflakeTimestamp(m.User.ID); err == nil {
		embed.Fields = []*discordgo.MessageEmbedField{{
			Name:  "Discord Account Created",
			Value: created.UTC().Format("2006-01-02 15:04:05 UTC"),
		}}
	}

	if _, err := s.ChannelMessageSendEmbed(strconv.FormatInt(channelID, 10), embed); err != nil {
		log.Printf("welcome: failed to send welcome message for %s in guild %s: %v", m.User.ID, m.GuildID, err)
	}
}

func (c *Component) sendOnboardDM(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	dm, err := s.UserChannelCreate(m.User.ID)
	if err != nil {
		log.Printf("welcome: failed to open DM channel for %s: %v", m.User.ID, err)
		return
	}
	if _, err := s.ChannelMessageSend(dm.ID, onboardDM); err != nil {
		// DMs closed or the bot is blocked; not an error worth surfacing.
		log.Printf("welcome: could not send onboarding DM to %s: %v", m.User.ID, err)
		return
	}
	log.Printf("welcome: sent onboarding DM to %s", m.User.ID)
}
