package guildconfig

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Store holds the per-guild configuration for the whole process. The backing
// file is a single JSON document keyed by guild ID as a string. The in-memory
// mapping is replaced wholesale on every reload; readers always see either the
// previous snapshot or the new one, never a half-updated config.
type Store struct {
	path string

	mu      sync.RWMutex
	configs map[int64]GuildConfig
}

// Open loads the store from path, creating the backing file with a seed
// document when it does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path, configs: map[int64]GuildConfig{}}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.bootstrap(); err != nil {
			return nil, fmt.Errorf("bootstrap guild config %s: %w", path, err)
		}
	}

	s.Reload()
	return s, nil
}

// bootstrap writes an empty document so a fresh deployment starts with a
// valid file instead of a load error.
func (s *Store) bootstrap() error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, []byte("{}\n"), 0o644)
}

// Reload re-reads the backing file, replacing the entire in-memory mapping.
// Read or parse failures are logged and leave the store empty; every guild
// then resolves to an all-nil defaulted config.
func (s *Store) Reload() {
	configs := map[int64]GuildConfig{}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		log.Printf("guildconfig: failed to read %s: %v", s.path, err)
	} else {
		var doc map[string]GuildConfig
		if err := json.Unmarshal(raw, &doc); err != nil {
			log.Printf("guildconfig: failed to parse %s: %v", s.path, err)
		} else {
			for key, persisted := range doc {
				gid, err := strconv.ParseInt(key, 10, 64)
				if err != nil {
					log.Printf("guildconfig: skipping non-numeric guild key %q", key)
					continue
				}
				configs[gid] = merged(persisted)
			}
		}
	}

	s.mu.Lock()
	s.configs = configs
	s.mu.Unlock()
}

// Guild returns the merged, fully-defaulted config for guildID. Unknown
// guilds (and guild ID zero) yield a defaulted all-nil config, never an
// error.
func (s *Store) Guild(guildID int64) GuildConfig {
	s.mu.RLock()
	cfg, ok := s.configs[guildID]
	s.mu.RUnlock()
	if !ok {
		return defaultConfig()
	}
	return cfg.Clone()
}

// Guilds returns the IDs of every configured guild, sorted.
func (s *Store) Guilds() []int64 {
	s.mu.RLock()
	ids := make([]int64, 0, len(s.configs))
	for gid := range s.configs {
		ids = append(ids, gid)
	}
	s.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Channel looks up a symbolic channel key for a guild. The second return is
// false when the guild or key is unset.
func (s *Store) Channel(guildID int64, key string) (int64, bool) {
	return lookup(s.Guild(guildID).Channels, key)
}

// Role looks up a symbolic role key for a guild.
func (s *Store) Role(guildID int64, key string) (int64, bool) {
	return lookup(s.Guild(guildID).Roles, key)
}

// Category looks up a symbolic category key for a guild.
func (s *Store) Category(guildID int64, key string) (int64, bool) {
	return lookup(s.Guild(guildID).Categories, key)
}

func lookup(m map[string]*int64, key string) (int64, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// Save persists cfg for guildID and reloads the store before returning, so a
// subsequent Guild call reflects the save. The on-disk document is re-read
// first to avoid clobbering other guilds, the previous file is copied to a
// timestamped backup (best effort), and the new document is written to a
// temp file and renamed over the target.
func (s *Store) Save(guildID int64, cfg GuildConfig) error {
	doc := map[string]json.RawMessage{}
	if raw, err := os.ReadFile(s.path); err == nil {
		if err := json.Unmarshal(raw, &doc); err != nil {
			log.Printf("guildconfig: existing %s is unreadable, starting fresh: %v", s.path, err)
			doc = map[string]json.RawMessage{}
		}
	}

	entry, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal guild %d config: %w", guildID, err)
	}
	doc[strconv.FormatInt(guildID, 10)] = entry

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal guild config document: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}

	if _, err := os.Stat(s.path); err == nil {
		if err := s.backup(); err != nil {
			log.Printf("guildconfig: failed to back up %s: %v", s.path, err)
		}
	}

	if err := writeAtomic(s.path, out); err != nil {
		return fmt.Errorf("write guild config: %w", err)
	}

	s.Reload()
	return nil
}

// backup copies the current file to a timestamped sibling.
func (s *Store) backup() error {
	src, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer src.Close()

	stamp := time.Now().UTC().Format("20060102T150405Z")
	dst, err := os.Create(fmt.Sprintf("%s.%s.bak", s.path, stamp))
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// writeAtomic writes data to a temp file in the target's directory and
// renames it over path. When the rename fails it falls back to a direct
// overwrite.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp_guild_config_")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		log.Printf("guildconfig: atomic rename failed, falling back to direct write: %v", err)
		os.Remove(tmpPath)
		return os.WriteFile(path, data, 0o644)
	}
	return nil
}
