// Package backstop holds the command record model: the canonical
// representation of one executable onboard command, the immutable command
// templates used for synthesis, and readers/writers for load files.
package backstop

import (
	"sort"

	"github.com/acisops/cmdhist/pkg/chron"
)

// Command kinds seen in load files and synthesized bursts.
const (
	KindACISPkt   = "ACISPKT"
	KindTargQuat  = "MP_TARGQUAT"
	KindSIMTrans  = "SIMTRANS"
	KindCommandSW = "COMMAND_SW"
	KindGetPitch  = "GET_PITCH" // pseudo-command, filtered from output files
)

// Stop-science mnemonic. The combinator uses it to locate the point where a
// continuation load resumes normal science.
const TLMSIDStopScience = "AA00000000"

// Command is one executable command and its timing. Date and Time are two
// representations of the same instant and must only be set together through
// SetTime (or parsed together from a load file).
type Command struct {
	// Kind is the command type tag, e.g. "ACISPKT" or "MP_TARGQUAT".
	Kind string
	// Date is the day-of-year form of the execution time.
	Date string
	// Time is the mission-elapsed-seconds form of the execution time.
	Time float64
	// TLMSID is the telemetry mnemonic, empty when not applicable.
	TLMSID string
	// MSID is the software mnemonic for COMMAND_SW commands.
	MSID string
	// SCS is the onboard command-sequencer slot that owns the command.
	SCS int
	// Step is the sequence position within the slot. Cosmetic; never used
	// for ordering.
	Step int
	// VCDU is the frame counter recorded in the load file (zero for
	// synthesized commands).
	VCDU int
	// Params holds kind-specific parameters.
	Params map[string]any
	// ParamStr is the rendered human-readable form of Params.
	ParamStr string
}

// Clone returns a deep copy. Nested parameter structures are never shared
// between the copy and the original, so template-derived commands can be
// mutated freely.
func (c Command) Clone() Command {
	out := c
	if c.Params != nil {
		out.Params = make(map[string]any, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	return out
}

// SetTime sets the execution time, keeping the seconds and date forms
// consistent.
func (c *Command) SetTime(secs float64) {
	c.Time = secs
	c.Date = chron.DateFromSecs(secs)
}

// SortByTime stable-sorts commands ascending by execution time. Stability
// matters: paired commands (e.g. the two stop-science packets of a safing
// burst) can share a timestamp and their relative order is operationally
// significant.
func SortByTime(cmds []Command) {
	sort.SliceStable(cmds, func(i, j int) bool {
		return cmds[i].Time < cmds[j].Time
	})
}

// FirstTime returns the execution time of the first command. The caller must
// have verified the list is non-empty.
func FirstTime(cmds []Command) float64 {
	return cmds[0].Time
}
