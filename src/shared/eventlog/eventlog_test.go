package eventlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeEventKeyPrefersEventID(t *testing.T) {
	assert.Equal(t, "id:789", MakeEventKey("789", "Some Title", 42))
	assert.Equal(t, "id:789", MakeEventKey("789", "Another Title", 1))
}

func TestMakeEventKeyIsDeterministic(t *testing.T) {
	a := MakeEventKey("", "Friday Night Ops", 42)
	b := MakeEventKey("", "Friday Night Ops", 42)
	assert.Equal(t, a, b)

	assert.NotEqual(t, MakeEventKey("1", "Same Title", 42), MakeEventKey("2", "Same Title", 42))
}

func TestMakeEventKeyNormalizesTitles(t *testing.T) {
	assert.Equal(t, "title:weekly fly-in::guild:42", MakeEventKey("", "Weekly   Fly-In!", 42))
	assert.Equal(t,
		MakeEventKey("", "WEEKLY FLY-IN", 42),
		MakeEventKey("", "weekly fly-in!!!", 42),
	)
	assert.NotEqual(t,
		MakeEventKey("", "Weekly Fly-In", 42),
		MakeEventKey("", "Weekly Fly-In", 43),
		"same title in different guilds must not collide",
	)
}

func TestMakeEventKeyGlobalScope(t *testing.T) {
	assert.Equal(t, "title:cross the pond::guild:global", MakeEventKey("", "Cross The Pond", 0))
}

func TestLogPathPerGuild(t *testing.T) {
	l := Log{Dir: "data"}
	assert.Equal(t, filepath.Join("data", "event_position_postings_guild_42.json"), l.path(42))
	assert.Equal(t, filepath.Join("data", "event_position_postings_global.json"), l.path(0))
}

func TestLoadMissingFileReturnsEmptyMap(t *testing.T) {
	l := Log{Dir: t.TempDir()}
	entries := l.Load(42)
	require.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestLoadCorruptFileReturnsEmptyMap(t *testing.T) {
	dir := t.TempDir()
	l := Log{Dir: dir}
	require.NoError(t, os.WriteFile(l.path(42), []byte("{broken"), 0o644))

	entries := l.Load(42)
	require.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	l := Log{Dir: t.TempDir()}
	gid := int64(42)

	key := MakeEventKey("100", "FNO", gid)
	entries := map[string]Entry{key: {
		EventTitle: "FNO",
		EventID:    "100",
		GuildID:    &gid,
		ChannelID:  555,
		MessageID:  900,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}}
	require.NoError(t, l.Save(gid, entries))

	got := l.Load(gid)
	require.Len(t, got, 1)
	entry := got[key]
	assert.Equal(t, "FNO", entry.EventTitle)
	assert.Equal(t, int64(555), entry.ChannelID)
	assert.Equal(t, int64(900), entry.MessageID)
	require.NotNil(t, entry.GuildID)
	assert.Equal(t, gid, *entry.GuildID)
}

func TestRepostReplacesEntryForSameKey(t *testing.T) {
	l := Log{Dir: t.TempDir()}
	gid := int64(42)
	key := MakeEventKey("", "Weekly Fly-In", gid)

	entries := l.Load(gid)
	entries[key] = Entry{EventTitle: "Weekly Fly-In", ChannelID: 1, MessageID: 10}
	require.NoError(t, l.Save(gid, entries))

	entries = l.Load(gid)
	entries[key] = Entry{EventTitle: "Weekly Fly-In", ChannelID: 1, MessageID: 20}
	require.NoError(t, l.Save(gid, entries))

	got := l.Load(gid)
	require.Len(t, got, 1, "reposting the same event must keep exactly one entry")
	assert.Equal(t, int64(20), got[key].MessageID)
}

func TestGuildLogsAreIsolated(t *testing.T) {
	l := Log{Dir: t.TempDir()}

	require.NoError(t, l.Save(1, map[string]Entry{"id:1": {ChannelID: 10}}))
	require.NoError(t, l.Save(2, map[string]Entry{"id:2": {ChannelID: 20}}))
	require.NoError(t, l.Save(0, map[string]Entry{"id:3": {ChannelID: 30}}))

	assert.Len(t, l.Load(1), 1)
	assert.Len(t, l.Load(2), 1)
	assert.Len(t, l.Load(0), 1)
	assert.Contains(t, l.Load(0), "id:3")
}
