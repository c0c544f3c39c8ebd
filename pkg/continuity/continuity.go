// Package continuity walks the predecessor references between load
// directories and persists the resulting chain. Each reviewed load directory
// carries a small text file naming the load it logically continues from and
// how the predecessor ended (normally, or cut by a replan or shutdown).
package continuity

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the continuity file found in every reviewed load directory.
const FileName = "ACIS-Continuity.txt"

// Record is one link in a continuity chain: the load directory the link was
// read from, the predecessor it points at, how the predecessor's commanding
// ended, and the interrupt time when it did not end normally.
type Record struct {
	Base          string
	Continuity    string
	LoadType      string
	InterruptTime string
}

// Read parses the continuity file in the given load directory. The first
// line names the predecessor load directory; the second carries the load
// type and, for interrupted types, the interrupt time.
func Read(dir string) (Record, error) {
	path := filepath.Join(dir, FileName)
	f, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("open continuity file: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return Record{}, fmt.Errorf("read continuity file %s: %w", path, err)
	}
	if len(lines) < 2 {
		return Record{}, fmt.Errorf("continuity file %s: expected predecessor and load-type lines", path)
	}

	rec := Record{Base: dir, Continuity: lines[0], InterruptTime: "None"}
	tokens := strings.Fields(lines[1])
	rec.LoadType = tokens[0]
	if len(tokens) > 1 {
		rec.InterruptTime = tokens[1]
	}
	if rec.LoadType != "Normal" && rec.InterruptTime == "None" {
		return Record{}, fmt.Errorf("continuity file %s: load type %s requires an interrupt time", path, rec.LoadType)
	}
	return rec, nil
}

// Walk follows continuity references backward from startDir, producing the
// chain newest-first. The walk stops when a directory has no continuity file
// on record, and is capped at maxLinks in case a chain ever loops back on
// itself.
func Walk(startDir string, maxLinks int) ([]Record, error) {
	var chain []Record
	dir := startDir
	for i := 0; i < maxLinks; i++ {
		rec, err := Read(dir)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("Continuity chain ends: no continuity file on record", "dir", dir, "links", len(chain))
			return chain, nil
		}
		if err != nil {
			return nil, err
		}
		chain = append(chain, rec)
		dir = rec.Continuity
	}
	return chain, nil
}
