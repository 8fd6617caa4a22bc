package webserver

import (
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vzdc-artcc/discord-bot/src/shared/announce"
	"github.com/vzdc-artcc/discord-bot/src/shared/eventlog"
	"github.com/vzdc-artcc/discord-bot/src/shared/vatsim"
)

const eventURLBase = "https://vzdc.org/events/"

// positionController is one signed-up controller in a position-posting
// request. Upstream systems disagree on time field names, so several aliases
// are accepted for the signup window.
type positionController struct {
	Name          string      `json:"controller_name"`
	Rating        interface{} `json:"controller_rating"`
	FinalPosition string      `json:"controller_final_position"`

	SignupStart string `json:"signup_start"`
	StartTime   string `json:"controller_start_time"`
	FinalStart  string `json:"controller_final_start_time"`
	Start       string `json:"start_time"`

	SignupEnd string `json:"signup_end"`
	EndTime   string `json:"controller_end_time"`
	FinalEnd  string `json:"controller_final_end_time"`
	End       string `json:"end_time"`
}

func (c positionController) startValue() string {
	return firstNonEmpty(c.SignupStart, c.StartTime, c.FinalStart, c.Start)
}

func (c positionController) endValue() string {
	return firstNonEmpty(c.SignupEnd, c.EndTime, c.FinalEnd, c.End)
}

type positionPostingRequest struct {
	EventName        string               `json:"event_name"`
	EventID          interface{}          `json:"event_id"`
	EventDescription string               `json:"event_description"`
	EventBannerURL   string               `json:"event_banner_url"`
	EventStartTime   string               `json:"event_start_time"`
	EventEndTime     string               `json:"event_end_time"`
	Controllers      []positionController `json:"controllers"`
	GuildID          int64                `json:"guild_id"`
	ChannelID        *int64               `json:"channel_id"`
	DryRun           bool                 `json:"dry_run"`
}

// EventPositionPosting builds a grouped-by-position controller summary for an
// event and posts it, replacing any earlier posting for the same event.
func (h *Handlers) EventPositionPosting(c *gin.Context) {
	var req positionPostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing JSON payload"})
		return
	}

	for _, check := range []struct {
		field   string
		missing bool
	}{
		{"event_name", strings.TrimSpace(req.EventName) == ""},
		{"event_description", req.EventDescription == ""},
		{"event_start_time", req.EventStartTime == ""},
		{"event_end_time", req.EventEndTime == ""},
		{"controllers", req.Controllers == nil},
	} {
		if check.missing {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required field: " + check.field})
			return
		}
	}

	eventID := flexString(req.EventID)
	desc := announce.Types["event-position-posting"]

	startAt, startErr := vatsim.ParseLogonTime(req.EventStartTime)
	endAt, endErr := vatsim.ParseLogonTime(req.EventEndTime)
	if startErr != nil {
		log.Printf("api: unparsable event_start_time %q: %v", req.EventStartTime, startErr)
	}
	if endErr != nil {
		log.Printf("api: unparsable event_end_time %q: %v", req.EventEndTime, endErr)
	}

	eventURL := ""
	if eventID != "" {
		eventURL = eventURLBase + eventID
	}

	payload := announce.Payload{
		Title:       strings.TrimSpace(req.EventName),
		Description: req.EventDescription,
		Color:       desc.Color,
		ImageURL:    h.resolveImageURL(req.EventBannerURL),
		URL:         eventURL,
		MessageType: "event-position-posting",
	}

	payload.Fields = append(payload.Fields,
		announce.Field{Name: "Start", Value: timestampOr(startAt, startErr, req.EventStartTime), Inline: true},
		announce.Field{Name: "End", Value: timestampOr(endAt, endErr, req.EventEndTime), Inline: true},
	)
	payload.Fields = append(payload.Fields, groupControllerFields(req.Controllers, startAt, endAt)...)

	channelID, haveChannel := h.resolveChannel(req.ChannelID, req.GuildID, "event-position-posting")
	if haveChannel {
		payload.TargetChannelID = &channelID
	}

	if req.DryRun {
		c.JSON(http.StatusOK, gin.H{"status": "dry_run", "payload": payload})
		return
	}
	if !haveChannel {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No target channel configured or provided for event posting",
		})
		return
	}

	messageID, err := h.sendEmbed(channelID, payload.Embed())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "Failed to post event positions",
			"detail": err.Error(),
		})
		return
	}

	resp := gin.H{"status": "ok", "channel_id": channelID, "message_id": messageID}

	key := eventlog.MakeEventKey(eventID, req.EventName, req.GuildID)
	entry := eventlog.Entry{
		EventTitle: req.EventName,
		EventID:    eventID,
		GuildID:    guildIDPtr(req.GuildID),
		ChannelID:  channelID,
		MessageID:  messageID,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := recordPosting(h.EventLog, req.GuildID, key, entry, h.deletePrevious); err != nil {
		log.Printf("api: failed to persist posting log for key %s: %v", key, err)
		resp["warning"] = "failed to persist posting log"
	}

	c.JSON(http.StatusOK, resp)
}

// groupControllerFields buckets controllers by position category and renders
// one embed field per category, in the conventional facility order. Discord
// caps embeds at 25 fields and field values at 1024 characters; both limits
// are respected by dropping overflow rather than failing.
func groupControllerFields(controllers []positionController, eventStart, eventEnd time.Time) []announce.Field {
	groups := map[string][]string{}
	for _, ctrl := range controllers {
		if ctrl.FinalPosition == "" {
			continue
		}
		category := vatsim.ParsePosition(ctrl.FinalPosition)

		name := ctrl.Name
		if name == "" {
			name = "(Unnamed)"
		}

		line := name
		if rating := normalizeRating(ctrl.Rating); rating != "" {
			line = fmt.Sprintf("%s (%s)", name, rating)
		}
		line += " — " + ctrl.FinalPosition
		line += controllerTimeSuffix(ctrl, eventStart, eventEnd)

		groups[category] = append(groups[category], line)
	}

	var ordered []string
	seen := map[string]bool{}
	for _, cat := range vatsim.PositionCategoryOrder {
		if len(groups[cat]) > 0 {
			ordered = append(ordered, cat)
			seen[cat] = true
		}
	}
	var extra []string
	for cat := range groups {
		if !seen[cat] {
			extra = append(extra, cat)
		}
	}
	sort.Strings(extra)
	ordered = append(ordered, extra...)

	var fields []announce.Field
	for _, cat := range ordered {
		// Two fields are already used for Start/End.
		if len(fields) >= 23 {
			log.Printf("api: embed field limit reached, dropping remaining position categories")
			break
		}
		members := groups[cat]
		fields = append(fields, announce.Field{
			Name:  fmt.Sprintf("%s (%d)", cat, len(members)),
			Value: truncateLines(members, 1000),
		})
	}
	if len(fields) == 0 {
		fields = append(fields, announce.Field{
			Name:  "Controllers",
			Value: "No controllers provided or none valid.",
		})
	}
	return fields
}

// controllerTimeSuffix renders a controller's own signup window, but only
// when it differs from the event window; matching times would just repeat the
// Start/End fields.
func controllerTimeSuffix(ctrl positionController, eventStart, eventEnd time.Time) string {
	start, startErr := parseOptionalTime(ctrl.startValue())
	end, endErr := parseOptionalTime(ctrl.endValue())
	haveStart := startErr == nil && !start.IsZero()
	haveEnd := endErr == nil && !end.IsZero()

	differs := (haveStart && start.Unix() != eventStart.Unix()) ||
		(haveEnd && end.Unix() != eventEnd.Unix())
	if !differs {
		return ""
	}

	switch {
	case haveStart && haveEnd:
		return fmt.Sprintf(" — <t:%d:t> to <t:%d:t>", start.Unix(), end.Unix())
	case haveStart:
		return fmt.Sprintf(" — <t:%d:t>", start.Unix())
	case haveEnd:
		return fmt.Sprintf(" — <t:%d:t>", end.Unix())
	}
	return ""
}

func parseOptionalTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return vatsim.ParseLogonTime(s)
}

// normalizeRating renders a controller rating as its short name. Integers
// and numeric strings map through the VATSIM rating table; anything else is
// uppercased as-is.
func normalizeRating(v interface{}) string {
	switch r := v.(type) {
	case nil:
		return ""
	case float64:
		return vatsim.RatingShort(int(r))
	case int:
		return vatsim.RatingShort(r)
	case string:
		s := strings.TrimSpace(r)
		if s == "" {
			return ""
		}
		if id, err := strconv.Atoi(s); err == nil {
			return vatsim.RatingShort(id)
		}
		return strings.ToUpper(s)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// timestampOr renders a Discord full-timestamp tag, falling back to the raw
// request value when the time did not parse.
func timestampOr(t time.Time, parseErr error, raw string) string {
	if parseErr == nil && !t.IsZero() {
		return fmt.Sprintf("<t:%d:F>", t.Unix())
	}
	if raw == "" {
		return "N/A"
	}
	return raw + " (UTC)"
}

// truncateLines joins lines up to a byte budget, marking omission with an
// ellipsis line.
func truncateLines(lines []string, limit int) string {
	joined := strings.Join(lines, "\n")
	if len(joined) <= limit {
		return joined
	}
	var kept []string
	total := 0
	for _, l := range lines {
		if total+len(l)+1 > limit-4 {
			kept = append(kept, "...")
			break
		}
		kept = append(kept, l)
		total += len(l) + 1
	}
	return strings.Join(kept, "\n")
}

// flexString renders the loosely-typed event_id field (string, number, or
// absent) as a string, empty when absent.
func flexString(v interface{}) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatInt(int64(id), 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func guildIDPtr(guildID int64) *int64 {
	if guildID == 0 {
		return nil
	}
	return &guildID
}
