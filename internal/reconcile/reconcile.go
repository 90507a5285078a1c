package reconcile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/gyeh/qcwatch/internal/status"
)

// DefaultExtensions lists the instrument output extensions picked up by the
// directory-listing mode.
var DefaultExtensions = []string{".raw"}

// Reconcile merges the status store view with the names discovered in the
// copy log. Status entries are preserved as-is; copy-log names only
// contribute when the status store has never seen them, always as "new".
func Reconcile(known, copyLog map[string]status.State) map[string]status.State {
	out := make(map[string]status.State, len(known)+len(copyLog))
	for name, st := range known {
		out[name] = st
	}
	for name := range copyLog {
		if _, ok := known[name]; ok {
			continue
		}
		out[name] = status.StateNew
	}
	return out
}

// ScanDirectory is the fallback used when no copy log is configured: every
// regular file in dir with a matching extension that the status store has not
// seen is marked "new". Extension matching is case-insensitive.
func ScanDirectory(dir string, extensions []string, known map[string]status.State) (map[string]status.State, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list input directory: %w", err)
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	exts := lo.Map(extensions, func(e string, _ int) string { return strings.ToLower(e) })

	found := make(map[string]status.State)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if !lo.Contains(exts, strings.ToLower(filepath.Ext(name))) {
			continue
		}
		found[name] = status.StateNew
	}
	return Reconcile(known, found), nil
}

// Pending returns the names in state "new", sorted so runs are deterministic.
// Running and completed files are never candidates.
func Pending(files map[string]status.State) []string {
	names := lo.Keys(lo.PickBy(files, func(_ string, st status.State) bool {
		return st == status.StateNew
	}))
	sort.Strings(names)
	return names
}
