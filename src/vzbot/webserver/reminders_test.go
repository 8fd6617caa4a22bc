package webserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vzdc-artcc/discord-bot/src/shared/eventstore"
)

func TestEventReminderRejectsEmptyList(t *testing.T) {
	g, _ := newTestServer(t, `{}`)

	for _, body := range []gin.H{{}, {"events": []gin.H{}}} {
		w := doJSON(t, g, "/weekly_event_reminder", testSecret, body)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "`events` must be a non-empty list", decodeBody(t, w)["error"])
	}
}

func TestEventReminderNoChannelConfigured(t *testing.T) {
	g, _ := newTestServer(t, `{}`)

	w := doJSON(t, g, "/regular_event_reminder", testSecret, gin.H{
		"guild_id": 42,
		"events":   []gin.H{{"event_name": "FNO", "event_id": "1"}},
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No channel configured for event reminders", decodeBody(t, w)["error"])
}

func TestEventReminderDryRunPayload(t *testing.T) {
	g, h := newTestServer(t, `{"42": {"channels": {"event_announcement_channel_id": 777}}}`)

	w := doJSON(t, g, "/weekly_event_reminder", testSecret, gin.H{
		"guild_id": 42,
		"dry_run":  true,
		"events": []gin.H{
			{
				"event_name":        "FNO DC Edition",
				"event_id":          "10",
				"event_description": "Friday night ops",
				"event_start_time":  "2026-09-04T23:00:00Z",
				"event_end_time":    "2026-09-05T03:00:00Z",
				"event_type":        "FNO",
				"event_host":        "vZDC",
			},
			{"event_name": "Sweatbox Sunday", "event_id": "11"},
		},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "dry_run", body["status"])

	payloads := body["payloads"].([]interface{})
	require.Len(t, payloads, 1, "two events fit in a single chunk")

	payload := payloads[0].(map[string]interface{})
	assert.Contains(t, payload["title"], "Weekly Events")
	assert.Equal(t, "Showing 2 event(s) — total 2 this week.", payload["description"])
	assert.Equal(t, float64(777), payload["target_channel_id"])

	fields := payload["fields"].([]interface{})
	require.Len(t, fields, 2)
	first := fields[0].(map[string]interface{})
	assert.True(t, strings.HasPrefix(first["name"].(string), "FNO DC Edition — <t:"))
	value := first["value"].(string)
	assert.Contains(t, value, "Friday night ops")
	assert.Contains(t, value, "Type: FNO • Host: vZDC")
	assert.Contains(t, value, fmt.Sprintf("[Event Page](%s10)", eventURLBase))

	// Dry runs still stash details for the interactive buttons.
	ev, ok := h.Events.Get(context.Background(), "10")
	require.True(t, ok)
	assert.Equal(t, "FNO DC Edition", ev.EventName)
}

func TestEventReminderChunksAtTwentyFiveEvents(t *testing.T) {
	g, _ := newTestServer(t, `{"42": {"channels": {"event_announcement_channel_id": 777}}}`)

	events := make([]gin.H, 0, 30)
	for i := 0; i < 30; i++ {
		events = append(events, gin.H{
			"event_name": fmt.Sprintf("Event %d", i),
			"event_id":   fmt.Sprintf("%d", i),
		})
	}

	w := doJSON(t, g, "/weekly_event_reminder", testSecret, gin.H{
		"guild_id": 42,
		"dry_run":  true,
		"events":   events,
	})

	require.Equal(t, http.StatusOK, w.Code)
	payloads := decodeBody(t, w)["payloads"].([]interface{})
	require.Len(t, payloads, 2)

	first := payloads[0].(map[string]interface{})
	second := payloads[1].(map[string]interface{})
	assert.Contains(t, first["title"], "(1/2)")
	assert.Contains(t, second["title"], "(2/2)")
	assert.Len(t, first["fields"].([]interface{}), 25)
	assert.Len(t, second["fields"].([]interface{}), 5)
	assert.Equal(t, "Showing 5 event(s) — total 30 this week.", second["description"])
}

func TestEventReminderDeliveryFailsWhenBridgeNotReady(t *testing.T) {
	g, _ := newTestServer(t, `{"42": {"channels": {"event_announcement_channel_id": 777}}}`)

	w := doJSON(t, g, "/regular_event_reminder", testSecret, gin.H{
		"guild_id": 42,
		"events":   []gin.H{{"event_name": "FNO", "event_id": "1"}},
	})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to deliver embeds to Discord", decodeBody(t, w)["error"])
}

func TestEventButtonsCapAtFive(t *testing.T) {
	events := make([]eventstore.Event, 8)
	for i := range events {
		events[i] = eventstore.Event{EventID: fmt.Sprintf("%d", i), EventName: fmt.Sprintf("Event %d", i)}
	}

	rows := eventButtons(events)
	require.Len(t, rows, 1)
	row, ok := rows[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, row.Components, 5)

	btn, ok := row.Components[0].(discordgo.Button)
	require.True(t, ok)
	assert.Equal(t, "evt:0", btn.CustomID)
	assert.Equal(t, "Event 0", btn.Label)
}

func TestEventFieldTruncation(t *testing.T) {
	ev := eventstore.Event{
		EventName:        strings.Repeat("N", 300),
		EventID:          "1",
		EventDescription: strings.Repeat("D", 2000),
	}

	name, value := eventField(ev)
	assert.LessOrEqual(t, len(name), maxFieldName)
	assert.True(t, strings.HasSuffix(name, "..."))
	assert.LessOrEqual(t, len(value), maxFieldValue)
	assert.True(t, strings.HasSuffix(value, "..."))
}

func TestEllipsizeKeepsRuneBoundaries(t *testing.T) {
	s := strings.Repeat("é", 200) // 2 bytes per rune

	out := ellipsize(s, 101)
	assert.LessOrEqual(t, len(out), 101)
	assert.True(t, utf8.ValidString(out), "truncation must never split a rune")
	assert.True(t, strings.HasSuffix(out, "..."))

	assert.Equal(t, "short", ellipsize("short", 10))
}

func TestEventFieldTruncationIsValidUTF8(t *testing.T) {
	ev := eventstore.Event{
		EventName:        strings.Repeat("✈", 120),
		EventID:          "1",
		EventDescription: strings.Repeat("☁", 600),
	}

	name, value := eventField(ev)
	assert.True(t, utf8.ValidString(name))
	assert.True(t, utf8.ValidString(value))
	assert.LessOrEqual(t, len(name), maxFieldName)
	assert.LessOrEqual(t, len(value), maxFieldValue)
}

func TestEventFieldPlaceholders(t *testing.T) {
	name, value := eventField(eventstore.Event{EventID: "5"})
	assert.Equal(t, "(Unnamed event)", name)
	assert.Contains(t, value, "(No description)")
	assert.Contains(t, value, "[Event Page]")
}
