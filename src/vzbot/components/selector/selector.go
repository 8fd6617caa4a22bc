// Package selector manages long-lived interactive messages (role selectors,
// board headers) that must survive restarts. Message IDs are persisted per
// guild so a restart re-attaches to the existing message instead of posting
// a duplicate.
package selector

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// Pin records where a selector message lives.
type Pin struct {
	MessageID int64 `json:"message_id"`
	ChannelID int64 `json:"channel_id"`
}

// File persists one selector's pins, keyed by guild ID.
type File struct {
	Path string
}

// Load reads the pin file. Missing or corrupt files yield an empty map so a
// fresh selector message gets posted.
func (f File) Load() map[int64]Pin {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("selector: failed to read %s: %v", f.Path, err)
		}
		return map[int64]Pin{}
	}
	var byGuild map[string]Pin
	if err := json.Unmarshal(raw, &byGuild); err != nil {
		log.Printf("selector: corrupt pin file %s: %v", f.Path, err)
		return map[int64]Pin{}
	}
	pins := make(map[int64]Pin, len(byGuild))
	for k, v := range byGuild {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		pins[id] = v
	}
	return pins
}

// Save writes the pin file.
func (f File) Save(pins map[int64]Pin) error {
	byGuild := make(map[string]Pin, len(pins))
	for k, v := range pins {
		byGuild[strconv.FormatInt(k, 10)] = v
	}
	raw, err := json.MarshalIndent(byGuild, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(f.Path, append(raw, '\n'), 0o644)
}

// Ensure makes sure the selector message exists in the given channel. When a
// recorded pin still resolves to a live message in that channel, nothing is
// posted; otherwise a new message is sent via build and the pin is updated.
func Ensure(s *discordgo.Session, f File, guildID, channelID int64, build func() *discordgo.MessageSend) error {
	pins := f.Load()

	if pin, ok := pins[guildID]; ok && pin.ChannelID == channelID && pin.MessageID != 0 {
		_, err := s.ChannelMessage(
			strconv.FormatInt(pin.ChannelID, 10),
			strconv.FormatInt(pin.MessageID, 10),
		)
		if err == nil {
			return nil
		}
		log.Printf("selector: recorded message %d in channel %d is gone, reposting", pin.MessageID, pin.ChannelID)
	}

	sent, err := s.ChannelMessageSendComplex(strconv.FormatInt(channelID, 10), build())
	if err != nil {
		return err
	}
	messageID, err := strconv.ParseInt(sent.ID, 10, 64)
	if err != nil {
		return err
	}
	pins[guildID] = Pin{MessageID: messageID, ChannelID: channelID}
	if err := f.Save(pins); err != nil {
		log.Printf("selector: failed to persist pin for guild %d: %v", guildID, err)
	}
	return nil
}
