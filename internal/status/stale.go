package status

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// Stale returns the running records whose last update is older than
// olderThan, sorted by name. Records without a usable timestamp are never
// reported as stale.
func Stale(recs map[string]FileRecord, olderThan time.Duration, now time.Time) []FileRecord {
	stale := lo.Filter(lo.Values(recs), func(r FileRecord, _ int) bool {
		if r.State != StateRunning || r.UpdatedAt.IsZero() {
			return false
		}
		return now.Sub(r.UpdatedAt) > olderThan
	})
	sort.Slice(stale, func(i, j int) bool { return stale[i].Name < stale[j].Name })
	return stale
}

// RequeueStale resets every stale running record to new and returns the names
// that were reset. A zero olderThan disables requeueing.
func (s *Store) RequeueStale(olderThan time.Duration) ([]string, error) {
	if olderThan <= 0 {
		return nil, nil
	}
	recs, err := s.Records()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, r := range Stale(recs, olderThan, s.now()) {
		if err := s.Reset(r.Name); err != nil {
			return names, err
		}
		names = append(names, r.Name)
	}
	return names, nil
}
