package webserver

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"

	"github.com/vzdc-artcc/discord-bot/src/shared/guildconfig"
)

type trainingPerson struct {
	DiscordUID interface{} `json:"discordUid"`
	FirstName  string      `json:"firstName"`
	LastName   string      `json:"lastName"`
	CID        interface{} `json:"cid"`
}

type trainingChannelRequest struct {
	Student        *trainingPerson  `json:"student"`
	PrimaryTrainer *trainingPerson  `json:"primaryTrainer"`
	OtherTrainers  []trainingPerson `json:"otherTrainers"`
}

var (
	slugStripRe   = regexp.MustCompile(`[^\w\s-]`)
	slugCollapseRe = regexp.MustCompile(`[\s_]+`)
)

// slugify lowercases a name and reduces it to hyphen-separated word
// characters, matching Discord channel naming rules.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugStripRe.ReplaceAllString(s, "")
	return slugCollapseRe.ReplaceAllString(s, "-")
}

// normalizeUID renders a Discord user ID supplied by an upstream system,
// which may arrive as a number, a string, or the literal strings "null" or
// "None". Returns empty for anything unusable.
func normalizeUID(v interface{}) string {
	s := strings.TrimSpace(flexString(v))
	switch strings.ToLower(s) {
	case "", "null", "none":
		return ""
	}
	return s
}

type trainingChannelResult struct {
	Status    string `json:"status"`
	ChannelID string `json:"channel_id"`
	GuildID   string `json:"guild_id"`
}

// CreateTrainingChannel creates a permission-scoped per-student channel in
// whichever guild the student is a member of. Idempotent on channel name.
func (h *Handlers) CreateTrainingChannel(c *gin.Context) {
	var req trainingChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing JSON body"})
		return
	}
	if req.Student == nil || req.PrimaryTrainer == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required student or primaryTrainer object"})
		return
	}

	studentUID := normalizeUID(req.Student.DiscordUID)
	if studentUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student.discordUid is required and must be provided"})
		return
	}

	first := strings.TrimSpace(req.Student.FirstName)
	last := strings.TrimSpace(req.Student.LastName)
	cid := strings.TrimSpace(flexString(req.Student.CID))
	if first == "" || last == "" || cid == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "student.firstName, student.lastName and student.cid are required",
		})
		return
	}

	primaryUID := normalizeUID(req.PrimaryTrainer.DiscordUID)
	var trainerUIDs []string
	if primaryUID != "" {
		trainerUIDs = append(trainerUIDs, primaryUID)
	}
	for _, t := range req.OtherTrainers {
		if uid := normalizeUID(t.DiscordUID); uid != "" {
			trainerUIDs = append(trainerUIDs, uid)
		}
	}

	channelName := slugify(fmt.Sprintf("%s-%s-%s", first, last, cid))

	v, err := h.Bridge.Run(func(ctx context.Context) (interface{}, error) {
		return h.createTrainingChannel(studentUID, trainerUIDs, channelName)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "Failed to create training channel",
			"detail": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, v.(trainingChannelResult))
}

func (h *Handlers) createTrainingChannel(studentUID string, trainerUIDs []string, channelName string) (trainingChannelResult, error) {
	guildID, err := h.findGuildWithMember(studentUID)
	if err != nil {
		return trainingChannelResult{}, err
	}

	channels, err := h.Session.GuildChannels(guildID)
	if err != nil {
		return trainingChannelResult{}, fmt.Errorf("failed to list channels for guild %s: %w", guildID, err)
	}
	for _, ch := range channels {
		if ch.Name == channelName {
			log.Printf("api: training channel %s already exists in guild %s", channelName, guildID)
			return trainingChannelResult{Status: "exists", ChannelID: ch.ID, GuildID: guildID}, nil
		}
	}

	parentID := h.trainingCategory(guildID, channels)

	memberAllow := int64(discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory)

	// The @everyone role shares the guild's ID.
	overwrites := []*discordgo.PermissionOverwrite{{
		ID:   guildID,
		Type: discordgo.PermissionOverwriteTypeRole,
		Deny: int64(discordgo.PermissionViewChannel),
	}, {
		ID:    studentUID,
		Type:  discordgo.PermissionOverwriteTypeMember,
		Allow: memberAllow,
	}}
	for _, uid := range trainerUIDs {
		if h.resolveMember(guildID, uid) == nil {
			log.Printf("api: trainer %s not in guild %s, skipping overwrite", uid, guildID)
			continue
		}
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    uid,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: memberAllow,
		})
	}

	created, err := h.Session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 channelName,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             parentID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return trainingChannelResult{}, fmt.Errorf("failed to create channel %s: %w", channelName, err)
	}
	log.Printf("api: created training channel %s (%s) in guild %s", channelName, created.ID, guildID)

	h.sendTrainingWelcome(created.ID, studentUID, trainerUIDs)

	return trainingChannelResult{Status: "created", ChannelID: created.ID, GuildID: guildID}, nil
}

// findGuildWithMember locates the guild the student belongs to among the
// guilds the bot is in.
func (h *Handlers) findGuildWithMember(uid string) (string, error) {
	for _, g := range h.Session.State.Guilds {
		if h.resolveMember(g.ID, uid) != nil {
			return g.ID, nil
		}
	}
	return "", fmt.Errorf("student with discord id %s not found in any guild the bot is in", uid)
}

// resolveMember checks the state cache first, then the API. Nil means the
// user is not a member of the guild.
func (h *Handlers) resolveMember(guildID, uid string) *discordgo.Member {
	if m, err := h.Session.State.Member(guildID, uid); err == nil && m != nil {
		return m
	}
	m, err := h.Session.GuildMember(guildID, uid)
	if err != nil {
		return nil
	}
	return m
}

// trainingCategory returns the configured training category for the guild,
// or empty when none is configured or the configured ID is not a category in
// this guild.
func (h *Handlers) trainingCategory(guildID string, channels []*discordgo.Channel) string {
	gid, err := strconv.ParseInt(guildID, 10, 64)
	if err != nil {
		return ""
	}
	catID, ok := h.Config.Category(gid, guildconfig.CategoryTrainingChannels)
	if !ok {
		log.Printf("api: no training category configured for guild %s, creating channel at guild root", guildID)
		return ""
	}
	id := strconv.FormatInt(catID, 10)
	for _, ch := range channels {
		if ch.ID == id && ch.Type == discordgo.ChannelTypeGuildCategory {
			return id
		}
	}
	log.Printf("api: configured category %s is not a category in guild %s", id, guildID)
	return ""
}

// sendTrainingWelcome posts the intro message into a freshly created
// training channel. Best effort, never fails the request.
func (h *Handlers) sendTrainingWelcome(channelID, studentUID string, trainerUIDs []string) {
	studentMention := "<@" + studentUID + ">"
	var trainerMentions []string
	for _, uid := range trainerUIDs {
		trainerMentions = append(trainerMentions, "<@"+uid+">")
	}
	trainersText := "(no trainers specified)"
	if len(trainerMentions) > 0 {
		trainersText = strings.Join(trainerMentions, ", ")
	}

	embed := &discordgo.MessageEmbed{
		Title: "Welcome to your training channel",
		Color: 0x2ECC71,
		Description: studentMention + "\n\n" +
			"You have recently been assigned to a training team with: " + trainersText + "\n\n" +
			"Please use this channel to coordinate availability and to ask questions regarding your training.",
	}
	content := strings.TrimSpace(studentMention + " " + strings.Join(trainerMentions, " "))

	_, err := h.Session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Embeds:  []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		log.Printf("api: failed to send welcome message to channel %s: %v", channelID, err)
	}
}
