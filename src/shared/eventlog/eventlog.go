// Package eventlog records the most recent Discord message posted for each
// event so that a repost replaces the previous announcement instead of
// duplicating it.
package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Entry records where an event was last announced.
type Entry struct {
	EventTitle string `json:"event_title"`
	EventID    string `json:"event_id,omitempty"`
	GuildID    *int64 `json:"guild_id,omitempty"`
	ChannelID  int64  `json:"channel_id"`
	MessageID  int64  `json:"message_id"`
	Timestamp  string `json:"timestamp"`
}

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s-]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// normalizeTitle lowercases, strips everything but word characters, spaces
// and hyphens, and collapses internal whitespace.
func normalizeTitle(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	t = nonWordRe.ReplaceAllString(t, "")
	t = whitespaceRe.ReplaceAllString(t, " ")
	return t
}

// MakeEventKey derives the stable key identifying "the same event" across
// repeated postings. An explicit event ID wins; otherwise the key is built
// from the normalized title scoped to the guild (or "global"). An event that
// later gains an ID therefore produces a different key than its ID-less
// predecessor; the orphaned title entry is left behind. That matches the
// behavior this log has always had.
func MakeEventKey(eventID, eventTitle string, guildID int64) string {
	if eventID != "" {
		return "id:" + eventID
	}
	scope := "global"
	if guildID != 0 {
		scope = strconv.FormatInt(guildID, 10)
	}
	return "title:" + normalizeTitle(eventTitle) + "::guild:" + scope
}

// Log reads and writes the per-guild (or global) posting files under Dir.
type Log struct {
	Dir string
}

// path returns the log file for a guild; guild ID zero selects the global
// file.
func (l Log) path(guildID int64) string {
	if guildID != 0 {
		return filepath.Join(l.Dir, fmt.Sprintf("event_position_postings_guild_%d.json", guildID))
	}
	return filepath.Join(l.Dir, "event_position_postings_global.json")
}

// Load returns the posting map for a guild. A missing or unparsable file
// yields an empty map; the caller may overwrite it.
func (l Log) Load(guildID int64) map[string]Entry {
	f, err := os.Open(l.path(guildID))
	if err != nil {
		return map[string]Entry{}
	}
	defer f.Close()

	// Shared lock while reading; proceed without it if flock is unavailable.
	locked := unix.Flock(int(f.Fd()), unix.LOCK_SH) == nil
	if locked {
		defer unix.Flock(int(f.Fd()), unix.LOCK_UN)
	}

	var entries map[string]Entry
	if err := json.NewDecoder(f).Decode(&entries); err != nil || entries == nil {
		return map[string]Entry{}
	}
	return entries
}

// Save writes the full posting map for a guild: exclusive lock on a temp
// file, flush and sync, then an atomic rename over the target. The temp file
// is removed on any failure and the error is returned.
func (l Log) Save(guildID int64, entries map[string]Entry) error {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return fmt.Errorf("create event log dir: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal event log: %w", err)
	}

	tmp, err := os.CreateTemp(l.Dir, ".tmp_event_log_")
	if err != nil {
		return fmt.Errorf("create temp event log: %w", err)
	}
	tmpPath := tmp.Name()

	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}

	if lockErr := unix.Flock(int(tmp.Fd()), unix.LOCK_EX); lockErr == nil {
		defer unix.Flock(int(tmp.Fd()), unix.LOCK_UN)
	}

	if _, err := tmp.Write(data); err != nil {
		return fail(fmt.Errorf("write event log: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("sync event log: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close event log: %w", err)
	}

	if err := os.Rename(tmpPath, l.path(guildID)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace event log: %w", err)
	}
	return nil
}
