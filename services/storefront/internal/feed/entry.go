// Package feed is the visitor-side "useless thought of the day" store: a
// locally persisted list of entries kept in step with the comment feed
// service.
package feed

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/Skotchmaster/ref_site/services/storefront/internal/feedclient"
)

type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// DisplayLayout renders as "DD MM YY HH : MI : SS".
const DisplayLayout = "02 01 06 15 : 04 : 05"

type Entry struct {
	ID     string     `json:"id"`
	T      string     `json:"t"`
	TS     string     `json:"ts"`
	Edited bool       `json:"edited,omitempty"`
	TSUnix int64      `json:"tsUnix,omitempty"`
	Sync   SyncStatus `json:"sync,omitempty"`
}

// LocalOnly reports whether the server has never acknowledged the entry.
func (e Entry) LocalOnly() bool {
	return e.Sync == SyncPending || e.Sync == SyncFailed
}

func stamp(t time.Time, loc *time.Location) (string, int64) {
	return t.In(loc).Format(DisplayLayout), t.UnixMilli()
}

// fromRemote maps a service post onto an entry. Unparseable timestamps are
// shown as received.
func fromRemote(p feedclient.Post, loc *time.Location) Entry {
	e := Entry{ID: p.ID, T: p.Body, TS: p.TS, Edited: p.Edited, Sync: SyncSynced}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, strings.TrimSpace(p.TS)); err == nil {
			e.TS, e.TSUnix = stamp(t, loc)
			break
		}
	}
	return e
}

// backfillUnix fills TSUnix for entries written before it was stored.
func backfillUnix(e Entry, loc *time.Location) Entry {
	if e.TSUnix != 0 || e.TS == "" {
		return e
	}
	if t, err := time.ParseInLocation(DisplayLayout, e.TS, loc); err == nil {
		e.TSUnix = t.UnixMilli()
	}
	return e
}

// compareNewestFirst orders by epoch, then by display string, then by id,
// all descending. Entries without an epoch sort last.
func compareNewestFirst(a, b Entry) int {
	return cmp.Or(
		cmp.Compare(b.TSUnix, a.TSUnix),
		strings.Compare(b.TS, a.TS),
		strings.Compare(b.ID, a.ID),
	)
}

func sortNewestFirst(items []Entry) {
	slices.SortStableFunc(items, compareNewestFirst)
}

// merge folds incoming into base by id. Incoming wins; base order is kept
// and new ids are appended in incoming order.
func merge(base, incoming []Entry) []Entry {
	pos := make(map[string]int, len(base)+len(incoming))
	out := make([]Entry, 0, len(base)+len(incoming))
	for _, e := range base {
		if e.ID == "" {
			continue
		}
		if i, ok := pos[e.ID]; ok {
			out[i] = e
			continue
		}
		pos[e.ID] = len(out)
		out = append(out, e)
	}
	for _, e := range incoming {
		if e.ID == "" {
			continue
		}
		if i, ok := pos[e.ID]; ok {
			out[i] = e
			continue
		}
		pos[e.ID] = len(out)
		out = append(out, e)
	}
	return out
}
