package webserver

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vzdc-artcc/discord-bot/src/shared/eventlog"
	"github.com/vzdc-artcc/discord-bot/src/shared/vatsim"
)

func positionPostingBody() gin.H {
	return gin.H{
		"event_name":        "Crossfire",
		"event_id":          "77",
		"event_description": "DC meets ZNY",
		"event_start_time":  "2026-09-01T23:00:00Z",
		"event_end_time":    "2026-09-02T03:00:00Z",
		"guild_id":          42,
		"controllers": []gin.H{
			{"controller_name": "Alice", "controller_rating": 5, "controller_final_position": "DCA_TWR"},
			{"controller_name": "Bob", "controller_rating": "S2", "controller_final_position": "DCA_GND"},
			{"controller_name": "Carol", "controller_rating": 7, "controller_final_position": "PCT_APP"},
		},
	}
}

func TestPositionPostingDryRunGroupsByCategory(t *testing.T) {
	g, _ := newTestServer(t, `{"42": {"channels": {"event_announcement_channel_id": 321}}}`)

	reqBody := positionPostingBody()
	reqBody["dry_run"] = true
	w := doJSON(t, g, "/event_position_posting", testSecret, reqBody)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "dry_run", body["status"])

	payload := body["payload"].(map[string]interface{})
	assert.Equal(t, "Crossfire", payload["title"])
	assert.Equal(t, "DC meets ZNY", payload["description"])
	assert.Equal(t, eventURLBase+"77", payload["event_url"])
	assert.Equal(t, float64(321), payload["target_channel_id"])

	fields := payload["fields"].([]interface{})
	require.Len(t, fields, 5, "Start, End, and three position categories")

	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.(map[string]interface{})["name"].(string))
	}
	assert.Equal(t, []string{"Start", "End", "GND (1)", "TWR (1)", "APP (1)"}, names,
		"categories must follow the facility order after the event window")

	start, err := vatsim.ParseLogonTime("2026-09-01T23:00:00Z")
	require.NoError(t, err)
	startField := fields[0].(map[string]interface{})
	assert.Equal(t, fmt.Sprintf("<t:%d:F>", start.Unix()), startField["value"])
	assert.Equal(t, true, startField["inline"])

	twr := fields[3].(map[string]interface{})
	assert.Equal(t, "Alice (C1) — DCA_TWR", twr["value"], "integer ratings map to short names")
	gnd := fields[2].(map[string]interface{})
	assert.Equal(t, "Bob (S2) — DCA_GND", gnd["value"], "string ratings pass through")
}

func TestPositionPostingMissingFields(t *testing.T) {
	g, _ := newTestServer(t, `{}`)

	for _, field := range []string{"event_name", "event_description", "event_start_time", "event_end_time", "controllers"} {
		t.Run(field, func(t *testing.T) {
			body := positionPostingBody()
			delete(body, field)
			w := doJSON(t, g, "/event_position_posting", testSecret, body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Missing required field: "+field, decodeBody(t, w)["error"])
		})
	}
}

func TestPositionPostingEmptyControllerListGetsPlaceholder(t *testing.T) {
	g, _ := newTestServer(t, `{}`)

	body := positionPostingBody()
	body["controllers"] = []gin.H{}
	body["dry_run"] = true

	w := doJSON(t, g, "/event_position_posting", testSecret, body)

	require.Equal(t, http.StatusOK, w.Code)
	payload := decodeBody(t, w)["payload"].(map[string]interface{})
	fields := payload["fields"].([]interface{})
	require.Len(t, fields, 3)
	last := fields[2].(map[string]interface{})
	assert.Equal(t, "Controllers", last["name"])
	assert.Equal(t, "No controllers provided or none valid.", last["value"])
}

func TestPositionPostingNoChannelWithoutDryRun(t *testing.T) {
	g, _ := newTestServer(t, `{}`)

	w := doJSON(t, g, "/event_position_posting", testSecret, positionPostingBody())

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No target channel configured or provided for event posting",
		decodeBody(t, w)["error"])
}

func TestPositionPostingNumericEventID(t *testing.T) {
	g, _ := newTestServer(t, `{}`)

	body := positionPostingBody()
	body["event_id"] = 99
	body["dry_run"] = true

	w := doJSON(t, g, "/event_position_posting", testSecret, body)

	require.Equal(t, http.StatusOK, w.Code)
	payload := decodeBody(t, w)["payload"].(map[string]interface{})
	assert.Equal(t, eventURLBase+"99", payload["event_url"])
}

func TestPositionPostingControllerWindowDifferingFromEvent(t *testing.T) {
	g, _ := newTestServer(t, `{}`)

	body := positionPostingBody()
	body["controllers"] = []gin.H{{
		"controller_name":           "Dave",
		"controller_rating":         4,
		"controller_final_position": "DCA_CTR",
		"controller_start_time":     "2026-09-02T00:00:00Z",
		"controller_end_time":       "2026-09-02T02:00:00Z",
	}}
	body["dry_run"] = true

	w := doJSON(t, g, "/event_position_posting", testSecret, body)

	require.Equal(t, http.StatusOK, w.Code)
	payload := decodeBody(t, w)["payload"].(map[string]interface{})
	fields := payload["fields"].([]interface{})
	require.Len(t, fields, 3)
	ctr := fields[2].(map[string]interface{})
	assert.Equal(t, "CTR (1)", ctr["name"])
	value := ctr["value"].(string)
	assert.True(t, strings.HasPrefix(value, "Dave (S3) — DCA_CTR — <t:"),
		"per-controller windows differing from the event window get a time suffix, got %q", value)
}

func TestRecordPostingReplacesEarlierEntry(t *testing.T) {
	el := eventlog.Log{Dir: t.TempDir()}
	key := eventlog.MakeEventKey("77", "Crossfire", 42)

	var deleted []eventlog.Entry
	deleter := func(e eventlog.Entry) deleteOutcome {
		deleted = append(deleted, e)
		return deleteDone
	}

	first := eventlog.Entry{EventTitle: "Crossfire", EventID: "77", ChannelID: 321, MessageID: 1000}
	require.NoError(t, recordPosting(el, 42, key, first, deleter))
	assert.Empty(t, deleted, "the first posting has nothing to supersede")

	second := eventlog.Entry{EventTitle: "Crossfire", EventID: "77", ChannelID: 321, MessageID: 2000}
	require.NoError(t, recordPosting(el, 42, key, second, deleter))

	require.Len(t, deleted, 1, "the repost must attempt to delete the earlier message")
	assert.Equal(t, int64(1000), deleted[0].MessageID)

	entries := el.Load(42)
	require.Len(t, entries, 1, "exactly one live entry per key")
	assert.Equal(t, int64(2000), entries[key].MessageID)
}

func TestRecordPostingRecordsEvenWhenDeleteFails(t *testing.T) {
	el := eventlog.Log{Dir: t.TempDir()}
	key := eventlog.MakeEventKey("", "Weekly Fly-In", 42)

	require.NoError(t, recordPosting(el, 42, key,
		eventlog.Entry{EventTitle: "Weekly Fly-In", ChannelID: 5, MessageID: 10},
		func(eventlog.Entry) deleteOutcome { return deleteDone }))

	failing := func(eventlog.Entry) deleteOutcome { return deleteFailed }
	require.NoError(t, recordPosting(el, 42, key,
		eventlog.Entry{EventTitle: "Weekly Fly-In", ChannelID: 5, MessageID: 20},
		failing))

	entries := el.Load(42)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(20), entries[key].MessageID,
		"a failed best-effort delete must not block recording the new post")
}

func TestNormalizeRating(t *testing.T) {
	assert.Equal(t, "C1", normalizeRating(5))
	assert.Equal(t, "C1", normalizeRating(float64(5)))
	assert.Equal(t, "C1", normalizeRating("5"))
	assert.Equal(t, "S2", normalizeRating("s2"))
	assert.Equal(t, "", normalizeRating(nil))
	assert.Equal(t, "", normalizeRating("  "))
}

func TestFlexString(t *testing.T) {
	assert.Equal(t, "", flexString(nil))
	assert.Equal(t, "abc", flexString("abc"))
	assert.Equal(t, "42", flexString(float64(42)))
}

func TestTruncateLines(t *testing.T) {
	lines := []string{strings.Repeat("a", 40), strings.Repeat("b", 40), strings.Repeat("c", 40)}

	full := truncateLines(lines, 1000)
	assert.Equal(t, strings.Join(lines, "\n"), full)

	cut := truncateLines(lines, 90)
	assert.LessOrEqual(t, len(cut), 90)
	assert.True(t, strings.HasSuffix(cut, "..."), "truncated output must end with an ellipsis line")
	assert.Contains(t, cut, strings.Repeat("a", 40))
	assert.NotContains(t, cut, strings.Repeat("c", 40))
}
