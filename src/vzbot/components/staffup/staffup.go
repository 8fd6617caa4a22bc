// Package staffup watches the VATSIM datafeed for facility controllers
// logging on and off and posts status notices to each guild's staffup
// channel.
package staffup

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/vzdc-artcc/discord-bot/src/shared/discordops"
	"github.com/vzdc-artcc/discord-bot/src/shared/guildconfig"
	"github.com/vzdc-artcc/discord-bot/src/shared/vatsim"
)

// WatchedPositions are the callsign prefixes belonging to the facility.
var WatchedPositions = []string{
	"DCA_", "IAD_", "BWI_", "PCT_", "ADW_", "RIC_", "ROA_", "ORF_", "ACY_", "NGU_",
	"NTU_", "NHK_", "RDU_", "CHO_", "HGR_", "LYH_", "EWN_", "LWB_", "ISO_", "MTN_", "HEF_",
	"MRB_", "PHF_", "SBY_", "NUI_", "FAY_", "ILM_", "NKT_", "NCA_", "NYG_", "DAA_", "DOV_",
	"POB_", "GSB_", "WAL_", "CVN_", "JYO_", "DC_",
}

const checkInterval = 15 * time.Second

type Component struct {
	session *discordgo.Session
	bridge  *discordops.Bridge
	config  *guildconfig.Store
	feed    *vatsim.Client
	vatusa  *vatsim.VATUSAClient
	tracker *Tracker
	watched []string
}

func New(session *discordgo.Session, bridge *discordops.Bridge, config *guildconfig.Store, feed *vatsim.Client, vatusa *vatsim.VATUSAClient) *Component {
	return &Component{
		session: session,
		bridge:  bridge,
		config:  config,
		feed:    feed,
		vatusa:  vatusa,
		tracker: NewTracker(),
		watched: WatchedPositions,
	}
}

// Run polls the datafeed until the context is canceled.
func (c *Component) Run(ctx context.Context) {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.check(ctx)
		}
	}
}

func (c *Component) check(ctx context.Context) {
	feed, err := c.feed.Fetch(ctx)
	if err != nil {
		log.Printf("staffup: datafeed fetch failed: %v", err)
		return
	}

	var watched []vatsim.Controller
	for _, ctrl := range feed.Controllers {
		if ctrl.Frequency == atisFrequency {
			continue
		}
		for _, prefix := range c.watched {
			if strings.HasPrefix(ctrl.Callsign, prefix) {
				watched = append(watched, ctrl)
				break
			}
		}
	}

	now := time.Now().UTC()
	cameOnline, wentOffline := c.tracker.Diff(now, watched)

	for _, s := range wentOffline {
		c.post(c.offlineEmbed(s, now))
	}
	for _, s := range cameOnline {
		// Some clients report the CID in place of a name; the roster API
		// usually has the real one.
		if s.DisplayName == strconv.Itoa(s.Controller.CID) {
			s.DisplayName = c.vatusa.RealName(ctx, strconv.Itoa(s.Controller.CID))
			c.tracker.SetDisplayName(s.Controller.CID, s.DisplayName)
		}
		c.post(c.onlineEmbed(s))
	}
}

// post delivers a status embed to every guild with a staffup channel
// configured. Best effort per guild.
func (c *Component) post(embed *discordgo.MessageEmbed) {
	for _, guildID := range c.config.Guilds() {
		channelID, ok := c.config.Channel(guildID, guildconfig.ChannelStaffup)
		if !ok {
			continue
		}
		_, err := c.bridge.Run(func(ctx context.Context) (interface{}, error) {
			return c.session.ChannelMessageSendEmbed(strconv.FormatInt(channelID, 10), embed)
		})
		if err != nil {
			log.Printf("staffup: failed to post to channel %d in guild %d: %v", channelID, guildID, err)
		}
	}
}

func (c *Component) onlineEmbed(s Session) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: s.Controller.Callsign + " - Online",
		Color: 0x2ECC71,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Name", Value: nameWithRating(s), Inline: true},
			{Name: "Frequency", Value: s.Controller.Frequency, Inline: true},
			{Name: "Online From", Value: fmt.Sprintf("<t:%d:t>", s.LoginAt.Unix()), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "vZDC Controller Status"},
	}
}

func (c *Component) offlineEmbed(s Session, now time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: s.Controller.Callsign + " - Offline",
		Color: 0xE74C3C,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Name", Value: nameWithRating(s), Inline: true},
			{Name: "Frequency", Value: s.Controller.Frequency, Inline: true},
			{Name: "Online From", Value: fmt.Sprintf("<t:%d:t>", s.LoginAt.Unix()), Inline: true},
			{Name: "Offline At", Value: fmt.Sprintf("<t:%d:t>", now.Unix()), Inline: true},
			{Name: "Duration", Value: FormatDuration(now.Sub(s.LoginAt)), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "vZDC Controller Status"},
	}
}

func nameWithRating(s Session) string {
	return fmt.Sprintf("%s (%s)", s.DisplayName, vatsim.RatingShort(s.Controller.Rating))
}

// FormatDuration renders a session length as compact day/hour/minute parts,
// with a seconds fallback for sub-minute sessions.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if len(parts) == 0 {
		if secs := int(d.Seconds()); secs > 0 {
			return fmt.Sprintf("%ds", secs)
		}
		return "0s"
	}
	return strings.Join(parts, " ")
}
