package webserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vzdc-artcc/discord-bot/src/shared/announce"
)

type announcementRequest struct {
	MessageType         string `json:"message_type"`
	Title               string `json:"title"`
	Body                string `json:"body"`
	GuildID             int64  `json:"guild_id"`
	ChannelID           *int64 `json:"channel_id"`
	AuthorName          string `json:"author_name"`
	AuthorRating        string `json:"author_rating"`
	AuthorStaffPosition string `json:"author_staff_position"`
	BannerURL           string `json:"banner_url"`
	URL                 string `json:"url"`
	EventID             string `json:"event_id"`
	DryRun              bool   `json:"dry_run"`
}

// Announcements validates, formats, and posts a generic announcement.
func (h *Handlers) Announcements(c *gin.Context) {
	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	req.MessageType = strings.ToLower(strings.TrimSpace(req.MessageType))
	if req.MessageType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message_type is required"})
		return
	}
	if _, ok := announce.Types[req.MessageType]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown message_type: " + req.MessageType})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body is required"})
		return
	}

	body := h.sanitizer.Sanitize(req.Body)

	channelID, ok := h.resolveChannel(req.ChannelID, req.GuildID, req.MessageType)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No channel configured for message_type " + req.MessageType,
		})
		return
	}

	payload := announce.Build(announce.Announcement{
		MessageType:         req.MessageType,
		Title:               req.Title,
		Body:                body,
		AuthorName:          req.AuthorName,
		AuthorRating:        req.AuthorRating,
		AuthorStaffPosition: req.AuthorStaffPosition,
		BannerURL:           h.resolveImageURL(req.BannerURL),
		URL:                 req.URL,
	})
	payload.TargetChannelID = &channelID

	if req.DryRun {
		c.JSON(http.StatusOK, gin.H{"status": "dry_run", "payload": payload})
		return
	}

	messageID, err := h.sendEmbed(channelID, payload.Embed())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "Failed to post announcement",
			"detail": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"channel_id": channelID,
		"message_id": messageID,
	})
}

// resolveChannel applies the announcement channel precedence: an explicit
// channel in the request wins, then the per-guild configuration for the
// message type.
func (h *Handlers) resolveChannel(explicit *int64, guildID int64, messageType string) (int64, bool) {
	if explicit != nil && *explicit != 0 {
		return *explicit, true
	}
	return h.Dispatcher.ResolveTargetChannel(guildID, messageType)
}
