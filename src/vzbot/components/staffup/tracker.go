package staffup

import (
	"log"
	"time"

	"github.com/vzdc-artcc/discord-bot/src/shared/vatsim"
)

// atisFrequency marks text/ATIS placeholder connections that never count as
// a controller coming online.
const atisFrequency = "199.998"

// Session is one tracked controller connection.
type Session struct {
	Controller  vatsim.Controller
	DisplayName string
	LoginAt     time.Time
}

// Tracker keeps the set of currently online watched controllers and computes
// the came-online / went-offline delta between datafeed snapshots.
type Tracker struct {
	online map[int]Session
}

func NewTracker() *Tracker {
	return &Tracker{online: map[int]Session{}}
}

// Online returns the tracked sessions, for diagnostics.
func (t *Tracker) Online() []Session {
	out := make([]Session, 0, len(t.online))
	for _, s := range t.online {
		out = append(out, s)
	}
	return out
}

// Diff reconciles the tracker against a fresh snapshot of watched
// controllers. Controllers present in the snapshot but not tracked are
// returned as cameOnline and begin being tracked; tracked controllers absent
// from the snapshot are returned as wentOffline and dropped.
func (t *Tracker) Diff(now time.Time, snapshot []vatsim.Controller) (cameOnline, wentOffline []Session) {
	seen := map[int]bool{}
	for _, ctrl := range snapshot {
		seen[ctrl.CID] = true
		if _, ok := t.online[ctrl.CID]; ok {
			continue
		}

		loginAt, err := vatsim.ParseLogonTime(ctrl.LogonTime)
		if err != nil {
			log.Printf("staffup: unparsable logon time %q for %s, using now", ctrl.LogonTime, ctrl.Callsign)
			loginAt = now
		}
		s := Session{Controller: ctrl, DisplayName: ctrl.Name, LoginAt: loginAt}
		t.online[ctrl.CID] = s
		cameOnline = append(cameOnline, s)
	}

	for cid, s := range t.online {
		if !seen[cid] {
			wentOffline = append(wentOffline, s)
			delete(t.online, cid)
		}
	}
	return cameOnline, wentOffline
}

// SetDisplayName records a resolved real name for a tracked controller so
// the eventual offline notice uses it too.
func (t *Tracker) SetDisplayName(cid int, name string) {
	if s, ok := t.online[cid]; ok {
		s.DisplayName = name
		t.online[cid] = s
	}
}
