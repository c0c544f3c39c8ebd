package continuity

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Fixed column widths of the chain dump: base directory, predecessor
// directory, load type, interrupt time. Readers slice by these exact widths,
// so writers must never change them independently.
const (
	baseWidth = 20
	contWidth = 80
	typeWidth = 10
	timeWidth = 25
)

// clip truncates s to the column width so an overlong value can never shift
// the columns that follow it.
func clip(s string, width int) string {
	if len(s) > width {
		return s[:width]
	}
	return s
}

// WriteRecords dumps a chain to path in the fixed-width four-column layout.
// Values longer than their column are truncated to keep the layout parseable.
func WriteRecords(path string, chain []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chain file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, rec := range chain {
		fmt.Fprintf(w, "%-*s %-*s %-*s %-*s\n",
			baseWidth, clip(rec.Base, baseWidth),
			contWidth, clip(rec.Continuity, contWidth),
			typeWidth, clip(rec.LoadType, typeWidth),
			timeWidth, clip(rec.InterruptTime, timeWidth))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write chain file %s: %w", path, err)
	}
	return nil
}

// ReadRecords reloads a chain written by WriteRecords, slicing each line by
// the same column layout.
func ReadRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chain file: %w", err)
	}
	defer f.Close()

	var chain []Record
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) < baseWidth+contWidth+typeWidth+3 {
			return nil, fmt.Errorf("chain file %s line %d: truncated record", path, lineNo)
		}
		col := func(start, width int) string {
			end := start + width
			if end > len(line) {
				end = len(line)
			}
			return strings.TrimRight(line[start:end], " ")
		}
		chain = append(chain, Record{
			Base:          col(0, baseWidth),
			Continuity:    col(baseWidth+1, contWidth),
			LoadType:      col(baseWidth+contWidth+2, typeWidth),
			InterruptTime: col(baseWidth+contWidth+typeWidth+3, timeWidth),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read chain file %s: %w", path, err)
	}
	return chain, nil
}
