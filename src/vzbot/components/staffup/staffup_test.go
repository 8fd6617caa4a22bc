package staffup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vzdc-artcc/discord-bot/src/shared/vatsim"
)

func watched(cid int, callsign, logon string) vatsim.Controller {
	return vatsim.Controller{
		CID:       cid,
		Name:      "Controller " + callsign,
		Callsign:  callsign,
		Frequency: "119.100",
		Rating:    5,
		LogonTime: logon,
	}
}

func TestDiffReportsNewControllersOnce(t *testing.T) {
	tr := NewTracker()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	snapshot := []vatsim.Controller{watched(100, "DCA_TWR", "2026-08-30T11:30:00Z")}

	came, went := tr.Diff(now, snapshot)
	require.Len(t, came, 1)
	assert.Empty(t, went)
	assert.Equal(t, "DCA_TWR", came[0].Controller.Callsign)
	assert.Equal(t, time.Date(2026, 8, 30, 11, 30, 0, 0, time.UTC), came[0].LoginAt.UTC())

	// Same snapshot again: nothing changed.
	came, went = tr.Diff(now.Add(15*time.Second), snapshot)
	assert.Empty(t, came)
	assert.Empty(t, went)
	assert.Len(t, tr.Online(), 1)
}

func TestDiffReportsDepartures(t *testing.T) {
	tr := NewTracker()
	now := time.Now()
	tr.Diff(now, []vatsim.Controller{
		watched(100, "DCA_TWR", "2026-08-30T11:30:00Z"),
		watched(200, "IAD_GND", "2026-08-30T11:45:00Z"),
	})

	came, went := tr.Diff(now, []vatsim.Controller{watched(100, "DCA_TWR", "2026-08-30T11:30:00Z")})
	assert.Empty(t, came)
	require.Len(t, went, 1)
	assert.Equal(t, "IAD_GND", went[0].Controller.Callsign)
	assert.Len(t, tr.Online(), 1)
}

func TestDiffFallsBackToNowOnBadLogonTime(t *testing.T) {
	tr := NewTracker()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	came, _ := tr.Diff(now, []vatsim.Controller{watched(100, "DCA_TWR", "garbage")})
	require.Len(t, came, 1)
	assert.Equal(t, now, came[0].LoginAt)
}

func TestSetDisplayNameSticksForOfflineNotice(t *testing.T) {
	tr := NewTracker()
	now := time.Now()
	tr.Diff(now, []vatsim.Controller{watched(100, "DCA_TWR", "2026-08-30T11:30:00Z")})

	tr.SetDisplayName(100, "Jane Doe")
	tr.SetDisplayName(999, "Nobody") // unknown CID is a no-op

	_, went := tr.Diff(now, nil)
	require.Len(t, went, 1)
	assert.Equal(t, "Jane Doe", went[0].DisplayName)
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{-5 * time.Second, "0s"},
		{45 * time.Second, "45s"},
		{5 * time.Minute, "5m"},
		{time.Hour + 2*time.Minute, "1h 2m"},
		{26*time.Hour + 3*time.Minute, "1d 2h 3m"},
		{24 * time.Hour, "1d"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatDuration(tc.in), "duration %v", tc.in)
	}
}
