package webserver

import (
	"github.com/bwmarrin/discordgo"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"

	"github.com/vzdc-artcc/discord-bot/src/shared/announce"
	"github.com/vzdc-artcc/discord-bot/src/shared/discordops"
	"github.com/vzdc-artcc/discord-bot/src/shared/eventlog"
	"github.com/vzdc-artcc/discord-bot/src/shared/eventstore"
	"github.com/vzdc-artcc/discord-bot/src/shared/guildconfig"
)

// Handlers carries the dependencies shared by all endpoints.
type Handlers struct {
	Session    *discordgo.Session
	Bridge     *discordops.Bridge
	Config     *guildconfig.Store
	Dispatcher *announce.Dispatcher
	EventLog   eventlog.Log
	Events     eventstore.Store
	BannerDir  string
	ImageBase  string

	sanitizer *bluemonday.Policy
}

// New builds the gin engine with all routes attached. The secret is the
// static X-API-Key value every protected route requires.
func New(secret string, h *Handlers) *gin.Engine {
	h.sanitizer = bluemonday.StrictPolicy()

	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery(), cors.Default(), RequestID())

	g.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := g.Group("/", APIKey(secret))
	{
		api.POST("/announcements", h.Announcements)
		api.POST("/announcement", h.Announcements)
		api.POST("/event_position_posting", h.EventPositionPosting)
		api.POST("/create_event_post", h.CreateEventPost)
		api.POST("/create_training_channel", h.CreateTrainingChannel)
		api.POST("/regular_event_reminder", h.EventReminder)
		api.POST("/weekly_event_reminder", h.EventReminder)
	}

	return g
}
