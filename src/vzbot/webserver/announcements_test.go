package webserver

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnouncementDryRunBuildsPayloadWithoutDiscord(t *testing.T) {
	g, _ := newTestServer(t, `{"42": {"channels": {"general_announcement_channel_id": 555}}}`)

	w := doJSON(t, g, "/announcements", testSecret, gin.H{
		"message_type": "general",
		"title":        "T",
		"body":         "B",
		"guild_id":     42,
		"dry_run":      true,
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "dry_run", body["status"])

	payload, ok := body["payload"].(map[string]interface{})
	require.True(t, ok, "payload must be an object")
	assert.Equal(t, "📢 General Announcement: T", payload["title"])
	assert.Equal(t, "B", payload["description"])
	assert.Equal(t, float64(0x3498DB), payload["color"])
	assert.Equal(t, float64(555), payload["target_channel_id"])
}

func TestAnnouncementExplicitChannelWinsOverConfig(t *testing.T) {
	g, _ := newTestServer(t, `{"42": {"channels": {"general_announcement_channel_id": 555}}}`)

	w := doJSON(t, g, "/announcements", testSecret, gin.H{
		"message_type": "general",
		"title":        "T",
		"body":         "B",
		"guild_id":     42,
		"channel_id":   999,
		"dry_run":      true,
	})

	require.Equal(t, http.StatusOK, w.Code)
	payload := decodeBody(t, w)["payload"].(map[string]interface{})
	assert.Equal(t, float64(999), payload["target_channel_id"])
}

func TestAnnouncementMessageTypeIsCaseInsensitive(t *testing.T) {
	g, _ := newTestServer(t, `{"42": {"channels": {"general_announcement_channel_id": 555}}}`)

	w := doJSON(t, g, "/announcements", testSecret, gin.H{
		"message_type": "General",
		"title":        "T",
		"body":         "B",
		"guild_id":     42,
		"dry_run":      true,
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	payload := decodeBody(t, w)["payload"].(map[string]interface{})
	assert.Equal(t, "📢 General Announcement: T", payload["title"])
	assert.Equal(t, "general", payload["message_type"])
}

func TestAnnouncementUnknownMessageType(t *testing.T) {
	g, _ := newTestServer(t, `{}`)

	w := doJSON(t, g, "/announcements", testSecret, gin.H{
		"message_type": "definitely-not-a-type",
		"title":        "T",
		"body":         "B",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unknown message_type: definitely-not-a-type", decodeBody(t, w)["error"])
}

func TestAnnouncementMissingFields(t *testing.T) {
	g, _ := newTestServer(t, `{}`)

	cases := []struct {
		name    string
		body    gin.H
		wantErr string
	}{
		{"no message_type", gin.H{"title": "T", "body": "B"}, "message_type is required"},
		{"no title", gin.H{"message_type": "general", "body": "B"}, "title is required"},
		{"no body", gin.H{"message_type": "general", "title": "T"}, "body is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, g, "/announcements", testSecret, tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.wantErr, decodeBody(t, w)["error"])
		})
	}
}

func TestAnnouncementNoChannelConfigured(t *testing.T) {
	g, _ := newTestServer(t, `{}`)

	w := doJSON(t, g, "/announcements", testSecret, gin.H{
		"message_type": "general",
		"title":        "T",
		"body":         "B",
		"guild_id":     42,
		"dry_run":      true,
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No channel configured for message_type general", decodeBody(t, w)["error"])
}

func TestAnnouncementBodyIsSanitized(t *testing.T) {
	g, _ := newTestServer(t, `{"42": {"channels": {"general_announcement_channel_id": 555}}}`)

	w := doJSON(t, g, "/announcements", testSecret, gin.H{
		"message_type": "general",
		"title":        "T",
		"body":         `hello <script>alert("x")</script>world`,
		"guild_id":     42,
		"dry_run":      true,
	})

	require.Equal(t, http.StatusOK, w.Code)
	payload := decodeBody(t, w)["payload"].(map[string]interface{})
	desc := payload["description"].(string)
	assert.NotContains(t, desc, "<script>")
	assert.Contains(t, desc, "hello")
	assert.Contains(t, desc, "world")
}

func TestAnnouncementFooterAndAuthorCarried(t *testing.T) {
	g, _ := newTestServer(t, `{"42": {"channels": {"training_announcement_channel_id": 8}}}`)

	w := doJSON(t, g, "/announcement", testSecret, gin.H{
		"message_type":          "training",
		"title":                 "Sweatbox sessions",
		"body":                  "Sign up now",
		"guild_id":              42,
		"author_name":           "Jane Doe",
		"author_rating":         "C1",
		"author_staff_position": "TA",
		"dry_run":               true,
	})

	require.Equal(t, http.StatusOK, w.Code)
	payload := decodeBody(t, w)["payload"].(map[string]interface{})
	assert.Equal(t, "Jane Doe", payload["author"])
	assert.Equal(t, "TA | C1", payload["footer"])
	assert.Equal(t, "🎓 Training Announcement: Sweatbox sessions", payload["title"])
}

func TestAnnouncementLiveSendFailsWhenBridgeNotReady(t *testing.T) {
	g, _ := newTestServer(t, `{"42": {"channels": {"general_announcement_channel_id": 555}}}`)

	w := doJSON(t, g, "/announcements", testSecret, gin.H{
		"message_type": "general",
		"title":        "T",
		"body":         "B",
		"guild_id":     42,
	})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to post announcement", decodeBody(t, w)["error"])
}
