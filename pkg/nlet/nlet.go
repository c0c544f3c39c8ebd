// Package nlet reads the non-load event tracking file: the append-only log
// where operators record out-of-band events (shutdowns, commanded maneuvers,
// long-term calibration runs, standalone power commands) that never appear
// in the built load files but must show up in an assembled command history.
//
// The file is owned by an external system and is only ever read here. Each
// query scans it fresh; nothing is cached between calls.
package nlet

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/acisops/cmdhist/pkg/backstop"
	"github.com/acisops/cmdhist/pkg/chron"
)

// EventType classifies one tracking-file entry.
type EventType string

const (
	// EventManeuver is an OCC-commanded pitch maneuver.
	EventManeuver EventType = "MAN"
	// EventCalRun is a long-term CTI calibration run.
	EventCalRun EventType = "LTCTI"
	// EventPower is a standalone power-state command.
	EventPower EventType = "POWER"
	// EventShutdown is a full-stop or science-only shutdown marker.
	EventShutdown EventType = "SHUTDOWN"
)

// Tags whose entries mark a shutdown rather than a synthesizable event.
var shutdownTags = map[string]bool{
	"STOP":    true,
	"S107":    true,
	"SCS-107": true,
}

// Power-state command names recognized in the event column, derived from the
// synthesis template table so the reader can never accept an entry the
// synthesizer has no template for.
var powerTags = func() map[string]bool {
	tags := make(map[string]bool)
	for _, name := range backstop.PowerCommandNames() {
		tags[name] = true
	}
	return tags
}()

// Maneuver carries the payload of a MAN entry.
type Maneuver struct {
	Pitch float64
	Roll  float64
	Q     [4]float64
}

// CalRun carries the payload of an LTCTI entry.
type CalRun struct {
	// CAPID identifies the command action procedure authorizing the run.
	CAPID string
	// RunName names the template script, e.g. "1_4_CTI".
	RunName string
	// Duration is the planned run length in ddd:hh:mm:ss form.
	Duration string
}

// Power carries the payload of a power-command entry.
type Power struct {
	Command string
}

// Event is one classified tracking-file entry. Exactly one payload pointer
// is non-nil, matching Type; shutdown events carry no payload.
type Event struct {
	Date     string
	Time     float64
	Type     EventType
	Maneuver *Maneuver
	CalRun   *CalRun
	Power    *Power
}

// Reader scans a tracking file. The zero value is not usable; construct with
// NewReader.
type Reader struct {
	path string
}

// NewReader returns a Reader over the tracking file at path.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// FindEvents returns, in file order, every recognized event whose time lies
// strictly between startExclusive and endExclusive. Comment lines, the GO
// sentinel, and malformed or unrecognized entries are skipped; only a
// missing or unreadable file is an error.
func (r *Reader) FindEvents(startExclusive, endExclusive float64) ([]Event, error) {
	return r.scan(startExclusive, endExclusive, false)
}

// FindEventsFrom is FindEvents with an inclusive lower bound. Callers that
// need the triggering shutdown entry itself — operators typically stamp it
// with the exact shutdown time — use this accessor.
func (r *Reader) FindEventsFrom(startInclusive, endExclusive float64) ([]Event, error) {
	return r.scan(startInclusive, endExclusive, true)
}

func (r *Reader) scan(start, end float64, includeStart bool) ([]Event, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open event tracking file: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		tokens := strings.Fields(line)
		// A GO line carries the sentinel alone; nothing to classify.
		if tokens[0] == "GO" {
			continue
		}

		secs, err := chron.SecsFromDate(tokens[0])
		if err != nil {
			slog.Warn("Skipping tracking-file line with malformed timestamp",
				"path", r.path, "line", lineNo)
			continue
		}
		if secs < start || (secs == start && !includeStart) {
			continue
		}
		if secs >= end {
			continue
		}

		ev, ok := classify(tokens, secs, r.path, lineNo)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read event tracking file: %w", err)
	}
	return events, nil
}

func classify(tokens []string, secs float64, path string, lineNo int) (Event, bool) {
	if len(tokens) < 2 {
		slog.Warn("Skipping truncated tracking-file line", "path", path, "line", lineNo)
		return Event{}, false
	}

	ev := Event{Date: tokens[0], Time: secs}
	tag := tokens[1]

	switch {
	case tag == "MAN":
		// date MAN pitch roll q1 q2 q3 q4
		if len(tokens) < 8 {
			slog.Warn("Skipping truncated maneuver entry", "path", path, "line", lineNo)
			return Event{}, false
		}
		man := &Maneuver{}
		vals := make([]float64, 6)
		for i, tok := range tokens[2:8] {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				slog.Warn("Skipping maneuver entry with malformed payload",
					"path", path, "line", lineNo, "token", tok)
				return Event{}, false
			}
			vals[i] = v
		}
		man.Pitch, man.Roll = vals[0], vals[1]
		copy(man.Q[:], vals[2:6])
		ev.Type = EventManeuver
		ev.Maneuver = man

	case tag == "LTCTI":
		// date LTCTI capID runName duration
		if len(tokens) < 5 {
			slog.Warn("Skipping truncated calibration-run entry", "path", path, "line", lineNo)
			return Event{}, false
		}
		ev.Type = EventCalRun
		ev.CalRun = &CalRun{CAPID: tokens[2], RunName: tokens[3], Duration: tokens[4]}

	case powerTags[tag]:
		// date commandName capNum — the CAP number is tracking-only.
		ev.Type = EventPower
		ev.Power = &Power{Command: tag}

	case shutdownTags[tag]:
		ev.Type = EventShutdown

	default:
		slog.Warn("Skipping unrecognized tracking-file event type",
			"path", path, "line", lineNo, "type", tag)
		return Event{}, false
	}
	return ev, true
}
