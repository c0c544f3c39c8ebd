// Package assembly merges weekly command loads, synthesized event bursts,
// and continuation loads into one chronologically ordered master timeline.
//
// An Assembler owns the master list and a rolling event-scan cursor for the
// duration of one assembly task. It is not safe for concurrent use; callers
// that assemble independent chains use one Assembler per chain.
package assembly

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/acisops/cmdhist/pkg/backstop"
	"github.com/acisops/cmdhist/pkg/nlet"
	"github.com/acisops/cmdhist/pkg/synth"
)

// Scenario selects the combination strategy. There is no auto-detection; the
// caller names the scenario, typically from the recorded load type of the
// interrupted load.
type Scenario string

const (
	// ScenarioNormal appends a continuation to an uninterrupted predecessor.
	ScenarioNormal Scenario = "normal"
	// ScenarioTimeCut cuts the predecessor at the continuation's first
	// command time (a TOO-style replan).
	ScenarioTimeCut Scenario = "time-cut"
	// ScenarioFullStop cuts the predecessor at a shutdown and inserts the
	// safing sequence before the continuation.
	ScenarioFullStop Scenario = "full-stop"
	// ScenarioScienceOnly cuts science commanding at a shutdown while
	// vehicle-only commanding continues in parallel.
	ScenarioScienceOnly Scenario = "science-only"
)

// ParseScenario maps a scenario name, or the load-type vocabulary used in
// continuity files, to a Scenario.
func ParseScenario(s string) (Scenario, error) {
	switch s {
	case "normal", "Normal":
		return ScenarioNormal, nil
	case "time-cut", "TOO":
		return ScenarioTimeCut, nil
	case "full-stop", "STOP":
		return ScenarioFullStop, nil
	case "science-only", "SCS-107":
		return ScenarioScienceOnly, nil
	}
	return "", fmt.Errorf("unknown combination scenario %q", s)
}

// ErrEmptyLoad marks a combination precondition violation: every scenario
// requires non-empty predecessor and continuation lists.
var ErrEmptyLoad = errors.New("load has no commands")

// TrimAfter keeps the commands executing strictly before cutoff. The cutoff
// instant itself is excluded.
func TrimAfter(cmds []backstop.Command, cutoff float64) []backstop.Command {
	var out []backstop.Command
	for _, c := range cmds {
		if c.Time < cutoff {
			out = append(out, c)
		}
	}
	return out
}

// TrimBefore keeps the commands executing at or after cutoff. The cutoff
// instant itself is included.
//
// The asymmetry with TrimAfter is deliberate and load-bearing: a new load's
// first command is never scheduled to coincide destructively with a kept
// predecessor command, so the boundary instant belongs to the later segment.
func TrimBefore(cmds []backstop.Command, cutoff float64) []backstop.Command {
	var out []backstop.Command
	for _, c := range cmds {
		if c.Time >= cutoff {
			out = append(out, c)
		}
	}
	return out
}

// Assembler combines loads into a master timeline.
type Assembler struct {
	synth  *synth.Synthesizer
	events *nlet.Reader

	master []backstop.Command
	// scanCursor is the earliest time still relevant for event scans: every
	// event at or after it is already reflected in the master list. Assembly
	// walks a continuity chain backward, prepending ever-older loads, so the
	// cursor clamps the upper bound of each scan window and is reset to the
	// master list's first timestamp after every combination.
	scanCursor float64
}

// New returns an Assembler using the given synthesizer and event-log reader.
func New(s *synth.Synthesizer, events *nlet.Reader) *Assembler {
	return &Assembler{synth: s, events: events, scanCursor: math.Inf(1)}
}

// Master returns the assembled timeline. The slice is owned by the Assembler
// until the assembly task completes; afterwards it is the caller's
// authoritative sequence.
func (a *Assembler) Master() []backstop.Command {
	return a.master
}

// CombineNormal appends a continuation load to an uninterrupted predecessor.
// Calibration-run and power-command events recorded between the predecessor
// start and the continuation end are synthesized into the result; maneuvers
// in that window already appear in the loads themselves.
func (a *Assembler) CombineNormal(pred, cont []backstop.Command) error {
	if err := requireLoads(pred, cont); err != nil {
		return err
	}

	extra, err := a.scanWindow(backstop.FirstTime(pred), endTime(cont), cont, false, false)
	if err != nil {
		return err
	}
	a.publish(pred, extra, cont)
	return nil
}

// CombineTimeCut cuts the predecessor at the continuation's first command
// time and appends the continuation. Predecessor commands at the cut instant
// itself are kept: the replan boundary is inclusive on both sides.
func (a *Assembler) CombineTimeCut(pred, cont []backstop.Command) error {
	if err := requireLoads(pred, cont); err != nil {
		return err
	}

	cutoff := backstop.FirstTime(cont)
	var kept []backstop.Command
	for _, c := range pred {
		if c.Time <= cutoff {
			kept = append(kept, c)
		}
	}

	extra, err := a.scanWindow(backstop.FirstTime(pred), endTime(cont), cont, false, false)
	if err != nil {
		return err
	}
	a.publish(kept, extra, cont)
	return nil
}

// CombineFullStop cuts the predecessor strictly before the shutdown, inserts
// the safing sequence, synthesizes every event recorded between the shutdown
// and the continuation start, and appends the continuation.
func (a *Assembler) CombineFullStop(pred, cont []backstop.Command, shutdownSecs float64) error {
	if err := requireLoads(pred, cont); err != nil {
		return err
	}

	kept := TrimAfter(pred, shutdownSecs)
	safing := a.synth.SafingSequence(shutdownSecs)

	extra, err := a.scanWindow(shutdownSecs, backstop.FirstTime(cont), cont, true, true)
	if err != nil {
		return err
	}
	a.publish(kept, safing, extra, cont)
	return nil
}

// CombineScienceOnly handles a partial interruption: science commanding stops
// at the shutdown while the vehicle-only load continues in parallel. The
// predecessor is cut strictly before the shutdown and followed by the safing
// sequence; the vehicle load is trimmed to the window from the shutdown up to
// the continuation start. Only calibration-run and power-command events are
// synthesized, since vehicle commanding (and with it maneuvering) never
// stopped.
func (a *Assembler) CombineScienceOnly(pred, vehicle, cont []backstop.Command, shutdownSecs float64) error {
	if err := requireLoads(pred, cont); err != nil {
		return err
	}
	if len(vehicle) == 0 {
		return fmt.Errorf("vehicle-only load: %w", ErrEmptyLoad)
	}

	kept := TrimAfter(pred, shutdownSecs)
	safing := a.synth.SafingSequence(shutdownSecs)
	vehicleKept := TrimAfter(TrimBefore(vehicle, shutdownSecs), backstop.FirstTime(cont))

	extra, err := a.scanWindow(shutdownSecs, backstop.FirstTime(cont), cont, false, true)
	if err != nil {
		return err
	}
	a.publish(kept, safing, vehicleKept, extra, cont)
	return nil
}

func requireLoads(pred, cont []backstop.Command) error {
	if len(pred) == 0 {
		return fmt.Errorf("predecessor load: %w", ErrEmptyLoad)
	}
	if len(cont) == 0 {
		return fmt.Errorf("continuation load: %w", ErrEmptyLoad)
	}
	return nil
}

func endTime(cmds []backstop.Command) float64 {
	return cmds[len(cmds)-1].Time
}

// scanWindow synthesizes commands for the tracking-file events between start
// and end, with end clamped down to the rolling scan cursor so
// already-consumed windows are never replayed. The interruption scenarios
// scan with an inclusive lower bound: operators stamp the events a shutdown
// triggers (the safing maneuver, a calibration run) with the shutdown time
// itself, and those must be picked up; the shutdown entry at that instant
// classifies as EventShutdown and synthesizes nothing. Maneuver events are
// only synthesized when withManeuvers is set; the other scenarios either
// carry maneuvers in the loads themselves or never stopped vehicle
// commanding.
func (a *Assembler) scanWindow(start, end float64, cont []backstop.Command, withManeuvers, includeStart bool) ([]backstop.Command, error) {
	if end > a.scanCursor {
		end = a.scanCursor
	}
	if start >= end {
		return nil, nil
	}

	var events []nlet.Event
	var err error
	if includeStart {
		events, err = a.events.FindEventsFrom(start, end)
	} else {
		events, err = a.events.FindEvents(start, end)
	}
	if err != nil {
		return nil, err
	}

	var out []backstop.Command
	for _, ev := range events {
		switch ev.Type {
		case nlet.EventManeuver:
			if !withManeuvers {
				continue
			}
			out = append(out, a.synth.Maneuver(ev.Time, ev.Maneuver)...)

		case nlet.EventCalRun:
			run, err := a.synth.CalibrationRun(ev.Date, ev.CalRun)
			if err != nil {
				return nil, err
			}
			out = append(out, completeRun(run, cont)...)

		case nlet.EventPower:
			cmd, err := a.synth.PowerCommand(ev.Time, ev.Power.Command)
			if err != nil {
				return nil, err
			}
			out = append(out, cmd)

		case nlet.EventShutdown:
			// Shutdown markers delimit windows; they synthesize nothing.

		default:
			slog.Warn("Ignoring unexpected event type during combination", "type", ev.Type)
		}
	}
	return out, nil
}

// completeRun applies the completion cutoff to an expanded calibration run:
// the run ends where the continuation load resumes normal science, marked by
// the continuation's first stop-science command. Expanded steps at or after
// that instant are dropped. A continuation with no stop-science command never
// interrupted the run, so the full expansion is kept.
func completeRun(run, cont []backstop.Command) []backstop.Command {
	for _, c := range cont {
		if c.TLMSID == backstop.TLMSIDStopScience {
			return TrimAfter(run, c.Time)
		}
	}
	return run
}

// publish concatenates the accumulated segments, stable-sorts by execution
// time, installs the result as the master list, and resets the scan cursor to
// the new first timestamp.
func (a *Assembler) publish(segments ...[]backstop.Command) {
	var merged []backstop.Command
	for _, seg := range segments {
		merged = append(merged, seg...)
	}
	backstop.SortByTime(merged)
	a.master = merged
	a.scanCursor = backstop.FirstTime(merged)
}
