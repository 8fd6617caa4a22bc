package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/vzdc-artcc/discord-bot/src/shared/announce"
	"github.com/vzdc-artcc/discord-bot/src/shared/awc"
	"github.com/vzdc-artcc/discord-bot/src/shared/discordops"
	"github.com/vzdc-artcc/discord-bot/src/shared/eventlog"
	"github.com/vzdc-artcc/discord-bot/src/shared/eventstore"
	"github.com/vzdc-artcc/discord-bot/src/shared/guildconfig"
	"github.com/vzdc-artcc/discord-bot/src/shared/vatsim"
	"github.com/vzdc-artcc/discord-bot/src/vzbot/components/auditlog"
	"github.com/vzdc-artcc/discord-bot/src/vzbot/components/breakboard"
	"github.com/vzdc-artcc/discord-bot/src/vzbot/components/commands"
	"github.com/vzdc-artcc/discord-bot/src/vzbot/components/eventinfo"
	"github.com/vzdc-artcc/discord-bot/src/vzbot/components/impromptu"
	"github.com/vzdc-artcc/discord-bot/src/vzbot/components/staffup"
	"github.com/vzdc-artcc/discord-bot/src/vzbot/components/welcome"
	"github.com/vzdc-artcc/discord-bot/src/vzbot/config"
	"github.com/vzdc-artcc/discord-bot/src/vzbot/webserver"
)

func main() {
	cfg := config.Load()

	if cfg.Token == "" {
		log.Fatal("DISCORD_TOKEN not set")
	}
	if cfg.APISecretKey == "" {
		log.Fatal("API_SECRET_KEY not set")
	}

	guildConfig, err := guildconfig.Open(cfg.GuildConfigFile)
	if err != nil {
		log.Fatalf("Failed to open guild config %s: %v", cfg.GuildConfigFile, err)
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		log.Fatalf("Failed to create Discord session: %v", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildBans |
		discordgo.IntentsMessageContent
	session.State.MaxMessageCount = 500

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var events eventstore.Store
	if cfg.RedisURL != "" {
		events = eventstore.NewRedisStore(eventstore.MustRedis(cfg.RedisURL), eventstore.DefaultTTL)
	} else {
		log.Println("REDIS_URL not set, keeping event details in memory")
		events = eventstore.NewMemoryStore(ctx, eventstore.DefaultTTL)
	}

	bridge := discordops.New()
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Discord bot logged in as %s", r.User.Username)
		bridge.Start(ctx)
	})

	feed := vatsim.NewClient()
	vatusa := vatsim.NewVATUSAClient(cfg.VATUSAToken)

	breakboard.New(session, guildConfig, cfg.DataDir).Register()
	impromptu.New(session, guildConfig, cfg.DataDir).Register()
	welcome.New(session, guildConfig).Register()
	auditlog.New(session, guildConfig).Register()
	eventinfo.New(session, events).Register()
	commands.New(session, awc.NewClient(), cfg.CommandGuildID).Register()

	staffupComponent := staffup.New(session, bridge, guildConfig, feed, vatusa)

	if err := session.Open(); err != nil {
		log.Fatalf("Failed to connect to Discord: %v", err)
	}
	defer session.Close()

	go staffupComponent.Run(ctx)

	dispatcher := &announce.Dispatcher{Config: guildConfig}
	handlers := &webserver.Handlers{
		Session:    session,
		Bridge:     bridge,
		Config:     guildConfig,
		Dispatcher: dispatcher,
		EventLog:   eventlog.Log{Dir: cfg.DataDir},
		Events:     events,
		BannerDir:  filepath.Join(cfg.DataDir, "banners"),
		ImageBase:  cfg.ImageBaseURL,
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.APIPort),
		Handler: webserver.New(cfg.APISecretKey, handlers),
	}
	go func() {
		log.Printf("API server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	log.Println("vzbot is running. Press CTRL-C to exit.")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("API server shutdown: %v", err)
	}

	cancel()
	bridge.Stop()
	log.Println("vzbot stopped gracefully")
}
