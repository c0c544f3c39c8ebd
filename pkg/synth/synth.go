// Package synth builds the command bursts that never appear in load files:
// safing sequences, commanded maneuvers, standalone power commands, and
// calibration runs. Every burst starts from the frozen template table and
// only ever mutates deep copies, so repeated synthesis is deterministic.
package synth

import (
	"fmt"
	"log/slog"

	"github.com/acisops/cmdhist/pkg/backstop"
	"github.com/acisops/cmdhist/pkg/nlet"
	"github.com/acisops/cmdhist/pkg/rts"
)

// Calibration runs execute from a dedicated sequencer slot.
const calRunSCS = 135

// Synthesizer materializes event-driven command bursts.
type Synthesizer struct {
	templates *backstop.TemplateTable
	expander  *rts.Expander
}

// New returns a Synthesizer over the given template table and calibration-run
// expander.
func New(templates *backstop.TemplateTable, expander *rts.Expander) *Synthesizer {
	return &Synthesizer{templates: templates, expander: expander}
}

// SafingSequence returns the four-command safing burst for a shutdown at
// shutdownSecs. The first command executes one second after the shutdown and
// the rest follow at a four second stride, matching the onboard sequencer
// spacing.
func (s *Synthesizer) SafingSequence(shutdownSecs float64) []backstop.Command {
	cmds := s.templates.SafingSequence()
	t := shutdownSecs + 1.0
	for i := range cmds {
		cmds[i].SetTime(t)
		t += 4.0
	}
	return cmds
}

// Maneuver returns the command pair for an operator-commanded maneuver at
// eventSecs. The target-attitude command carries the event quaternion and
// executes at the event time; the maneuver-initiation command always follows
// one second later. A zero-pitch entry means the operator did not record the
// attitude, so only the initiation command is produced.
func (s *Synthesizer) Maneuver(eventSecs float64, man *nlet.Maneuver) []backstop.Command {
	var cmds []backstop.Command

	if man.Pitch == 0 {
		slog.Warn("Maneuver entry has no recorded attitude; skipping target quaternion command",
			"time", eventSecs)
	} else {
		tq := s.templates.TargQuat()
		tq.Params["Q1"] = man.Q[0]
		tq.Params["Q2"] = man.Q[1]
		tq.Params["Q3"] = man.Q[2]
		tq.Params["Q4"] = man.Q[3]
		tq.ParamStr = fmt.Sprintf("TLMSID= AOUPTARQ, CMDS= 8, Q1= %.8f, Q2= %.8f, Q3= %.8f, Q4= %.8f, SCS= %d, STEP= %d",
			man.Q[0], man.Q[1], man.Q[2], man.Q[3], tq.SCS, tq.Step)
		tq.SetTime(eventSecs)
		cmds = append(cmds, tq)
	}

	mi := s.templates.ManeuverInit()
	mi.SetTime(eventSecs + 1.0)
	cmds = append(cmds, mi)
	return cmds
}

// SafeModeManeuver is Maneuver for a safe-mode entry: the initiation command
// is the safe-mode variant rather than the normal one.
func (s *Synthesizer) SafeModeManeuver(eventSecs float64, man *nlet.Maneuver) []backstop.Command {
	cmds := s.Maneuver(eventSecs, man)
	init := s.templates.SafeModeInit()
	init.SetTime(eventSecs + 1.0)
	cmds[len(cmds)-1] = init
	return cmds
}

// PowerCommand returns the named standalone power-state command stamped with
// eventSecs. A name outside the fixed template set is an error: an
// unrecognized power command in the tracking file means the file and the
// templates have diverged, and assembly must not continue.
func (s *Synthesizer) PowerCommand(eventSecs float64, name string) (backstop.Command, error) {
	cmd, ok := s.templates.PowerCommand(name)
	if !ok {
		return backstop.Command{}, fmt.Errorf("unrecognized power command %q in tracking file", name)
	}
	cmd.SetTime(eventSecs)
	return cmd, nil
}

// CalibrationRun expands the named calibration-run script starting at the
// event date.
func (s *Synthesizer) CalibrationRun(startDate string, run *nlet.CalRun) ([]backstop.Command, error) {
	duration, err := rts.ParseDuration(run.Duration)
	if err != nil {
		return nil, fmt.Errorf("calibration run %s (CAP %s): %w", run.RunName, run.CAPID, err)
	}
	cmds, err := s.expander.Expand(run.RunName, calRunSCS, duration, startDate)
	if err != nil {
		return nil, fmt.Errorf("calibration run %s (CAP %s): %w", run.RunName, run.CAPID, err)
	}
	return cmds, nil
}
