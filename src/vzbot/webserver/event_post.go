package webserver

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"

	"github.com/vzdc-artcc/discord-bot/src/shared/announce"
	"github.com/vzdc-artcc/discord-bot/src/shared/vatsim"
)

type eventPostUser struct {
	FullName   string      `json:"fullName"`
	FirstName  string      `json:"firstName"`
	LastName   string      `json:"lastName"`
	DiscordUID interface{} `json:"discordUid"`
}

type eventPostPosition struct {
	Published         *bool          `json:"published"`
	FinalPosition     string         `json:"finalPosition"`
	RequestedPosition string         `json:"requestedPosition"`
	FinalStartTime    string         `json:"finalStartTime"`
	FinalEndTime      string         `json:"finalEndTime"`
	User              *eventPostUser `json:"user"`
}

type eventPostEvent struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Start       string              `json:"start"`
	End         string              `json:"end"`
	BannerKey   string              `json:"bannerKey"`
	Positions   []eventPostPosition `json:"positions"`
}

type eventPostRequest struct {
	Event     *eventPostEvent `json:"event"`
	GuildID   int64           `json:"guild_id"`
	ChannelID *int64          `json:"channel_id"`
	DryRun    bool            `json:"dry_run"`
}

// CreateEventPost publishes a roster-style event announcement from the web
// system's event object: the event window, the published position list with
// controller mentions, and the event banner when one is configured.
func (h *Handlers) CreateEventPost(c *gin.Context) {
	var req eventPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing JSON payload"})
		return
	}
	if req.Event == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid 'event' object in payload"})
		return
	}
	ev := req.Event

	for _, check := range []struct {
		field   string
		missing bool
	}{
		{"name", strings.TrimSpace(ev.Name) == ""},
		{"description", ev.Description == ""},
		{"start", ev.Start == ""},
		{"end", ev.End == ""},
		{"positions", len(ev.Positions) == 0},
	} {
		if check.missing {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Missing or empty required event field: '" + check.field + "'",
			})
			return
		}
	}

	desc := announce.Types["event-posting"]
	lines, mentions := positionLines(ev.Positions)

	payload := announce.Payload{
		Title:       fmt.Sprintf("%s %s", desc.TitlePrefix, strings.TrimSpace(ev.Name)),
		Description: ev.Description,
		Color:       desc.Color,
		Footer:      "Automated Event Post",
		MessageType: "event-posting",
		Fields: []announce.Field{
			{Name: "⏰ Event Times", Value: formatEventTimeRange(ev.Start, ev.End, time.Now().UTC())},
			{Name: "📍 Posted Positions", Value: truncateLines(lines, 1000)},
		},
	}

	bannerURL := ""
	if ev.BannerKey != "" {
		if h.ImageBase == "" {
			log.Printf("api: event %q has banner key %q but IMAGE_BASE_URL is not set", ev.Name, ev.BannerKey)
		} else {
			bannerURL = h.resolveImageURL(ev.BannerKey)
			payload.ImageURL = bannerURL
		}
	}

	content := "Heads up everyone!"
	if len(mentions) > 0 {
		content = strings.Join(mentions, " ")
	}

	channelID, haveChannel := h.resolveChannel(req.ChannelID, req.GuildID, "event-posting")
	if haveChannel {
		payload.TargetChannelID = &channelID
	}

	if req.DryRun {
		c.JSON(http.StatusOK, gin.H{"status": "dry_run", "payload": payload, "content": content})
		return
	}
	if !haveChannel {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No target channel configured or provided for event posting",
		})
		return
	}

	messageID, err := h.sendEventPost(channelID, content, payload, bannerURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "Failed to post event announcement",
			"detail": err.Error(),
		})
		return
	}

	resp := gin.H{
		"status":     "success",
		"message":    "Event announcement posted successfully",
		"channel_id": channelID,
		"message_id": messageID,
	}
	if req.GuildID != 0 {
		resp["url"] = fmt.Sprintf("https://discord.com/channels/%d/%d/%d", req.GuildID, channelID, messageID)
	}
	c.JSON(http.StatusOK, resp)
}

// sendEventPost delivers the ping content plus embed, attaching the banner
// from the on-disk cache when the download works and falling back to the
// embedded remote URL when it does not.
func (h *Handlers) sendEventPost(channelID int64, content string, payload announce.Payload, bannerURL string) (int64, error) {
	banner := ""
	if bannerURL != "" {
		if path, err := h.fetchBanner("post_"+payload.Title, bannerURL); err == nil {
			banner = path
		} else {
			log.Printf("api: banner cache miss for event post: %v", err)
		}
	}

	msg := &discordgo.MessageSend{Content: content}
	embed := payload.Embed()
	if banner != "" {
		f, err := os.Open(banner)
		if err == nil {
			defer f.Close()
			msg.Files = []*discordgo.File{{Name: "banner.png", Reader: f}}
			embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://banner.png"}
		} else {
			log.Printf("api: failed to open cached banner %s: %v", banner, err)
		}
	}
	msg.Embeds = []*discordgo.MessageEmbed{embed}

	return h.sendMessage(channelID, msg)
}

// positionLines renders the published positions sorted by position name, and
// collects the Discord mentions for the message content. Positions with no
// signed-up controller render as open.
func positionLines(positions []eventPostPosition) ([]string, []string) {
	published := make([]eventPostPosition, 0, len(positions))
	for _, p := range positions {
		if p.Published != nil && !*p.Published {
			continue
		}
		published = append(published, p)
	}
	sort.SliceStable(published, func(i, j int) bool {
		return positionName(published[i]) < positionName(published[j])
	})

	var lines []string
	var mentions []string
	for _, p := range published {
		display, mention := controllerDisplay(p.User)
		if mention != "" {
			mentions = append(mentions, mention)
		}

		line := fmt.Sprintf("• **%s**: %s", positionName(p), display)
		if suffix := positionTimeSuffix(p); suffix != "" {
			line += suffix
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = []string{"No positions posted yet."}
	}
	return lines, mentions
}

func positionName(p eventPostPosition) string {
	return firstNonEmpty(p.FinalPosition, p.RequestedPosition, "N/A Position")
}

// controllerDisplay renders a position's controller as a display name plus
// optional mention tag. A position with no usable name is open.
func controllerDisplay(u *eventPostUser) (string, string) {
	if u == nil {
		return "(Open)", ""
	}
	name := strings.TrimSpace(u.FullName)
	if name == "" {
		name = strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	}
	if name == "" {
		return "(Open)", ""
	}

	uid := normalizeUID(u.DiscordUID)
	if uid == "" {
		return name, ""
	}
	mention := "<@" + uid + ">"
	return name + " (" + mention + ")", mention
}

// positionTimeSuffix renders a position's own window when one is set; the
// caller's event window already covers positions without one.
func positionTimeSuffix(p eventPostPosition) string {
	start, startErr := parseOptionalTime(p.FinalStartTime)
	end, endErr := parseOptionalTime(p.FinalEndTime)
	if startErr != nil || endErr != nil || start.IsZero() || end.IsZero() {
		return ""
	}
	return fmt.Sprintf(" — <t:%d:t> to <t:%d:t>", start.Unix(), end.Unix())
}

// formatEventTimeRange renders the event window in Zulu notation. The year
// appears only when it differs from the current one, and a same-day window
// collapses to a single date.
func formatEventTimeRange(startRaw, endRaw string, now time.Time) string {
	start, startErr := vatsim.ParseLogonTime(startRaw)
	end, endErr := vatsim.ParseLogonTime(endRaw)
	if startErr != nil || endErr != nil {
		return strings.TrimSpace(startRaw + " - " + endRaw)
	}
	start, end = start.UTC(), end.UTC()

	date := func(t time.Time) string {
		s := t.Format("January 02")
		if t.Year() != now.Year() {
			s += ", " + strconv.Itoa(t.Year())
		}
		return s
	}
	zulu := func(t time.Time) string {
		return t.Format("1504") + "z"
	}

	if start.Format("2006-01-02") == end.Format("2006-01-02") {
		return fmt.Sprintf("%s | %s - %s", date(start), zulu(start), zulu(end))
	}
	return fmt.Sprintf("%s %s - %s %s", date(start), zulu(start), date(end), zulu(end))
}
