// Package copylog reads transfer-utility (robocopy) logs to find files that
// finished arriving in the instrument output directory.
//
// A transfer session in the log looks like:
//
//	  Started : Thu Jan 19 11:08:10 2012
//	                      6    F:\Backup\BRS\Data\E2\
//	       New File           211.2 m    110215_13.RAW
//	  Monitor : Waiting for 1 minutes and 1 changes...
//
// Only files listed between a start marker and the next monitor marker are
// considered complete.
package copylog

import (
	"fmt"
	"os"
	"strings"

	"github.com/gyeh/qcwatch/internal/status"
)

// Markers are the literal substrings that delimit a transfer session.
type Markers struct {
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
	NewFile string `yaml:"new_file"`
}

// DefaultMarkers returns the robocopy markers.
func DefaultMarkers() Markers {
	return Markers{Start: "Started", End: "Monitor", NewFile: "New File"}
}

// Block is one transfer session: the line indexes of its start and end markers.
type Block struct {
	Start int
	End   int
}

// Blocks returns one Block per start marker that has a later end marker. Each
// block ends at the first end marker after its own start, so blocks may
// overlap when a session restarts before the monitor line is written.
func Blocks(lines []string, m Markers) []Block {
	var blocks []Block
	for i, line := range lines {
		if !strings.Contains(line, m.Start) {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			if strings.Contains(lines[j], m.End) {
				blocks = append(blocks, Block{Start: i, End: j})
				break
			}
		}
	}
	return blocks
}

// ParseBlocks returns the files that completed arriving according to text,
// each with state "new". Names already present in existing are left out, so
// parsing a growing log repeatedly never reports the same file twice.
func ParseBlocks(text string, existing map[string]status.State, m Markers) map[string]status.State {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	found := make(map[string]status.State)

	for _, b := range Blocks(lines, m) {
		for _, line := range lines[b.Start:b.End] {
			if !strings.Contains(line, m.NewFile) {
				continue
			}
			name := lastToken(line)
			if name == "" {
				continue
			}
			if _, seen := existing[name]; seen {
				continue
			}
			found[name] = status.StateNew
		}
	}
	return found
}

// ParseFile reads the log at path and applies ParseBlocks.
func ParseFile(path string, existing map[string]status.State, m Markers) (map[string]status.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read copy log: %w", err)
	}
	return ParseBlocks(string(data), existing, m), nil
}

func lastToken(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
