// Package rts expands calibration-run scripts into timed command lists.
//
// A script is a sequence of steps, each carrying a mnemonic and a delay
// relative to the previous step. Expansion walks the script with a running
// cursor, stamps absolute execution times, and materializes a command record
// for every instrument step. Non-instrument steps (vehicle commands marked
// /CMD) advance the cursor and the step counter but produce no record.
package rts

import (
	"bufio"
	"embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/acisops/cmdhist/pkg/backstop"
	"github.com/acisops/cmdhist/pkg/chron"
)

//go:embed scripts/*.RTS
var scriptFS embed.FS

//go:embed commands.yaml
var commandTableRaw []byte

// durationToken marks a delay that resolves to the run's planned duration at
// expansion time.
const durationToken = "&NUM_HOURS&"

// CommandSpec is the fixed content of one instrument command: the serial
// command count, word count, and packet payload that never vary between runs.
type CommandSpec struct {
	Cmds   int    `yaml:"cmds"`
	Words  int    `yaml:"words"`
	Packet string `yaml:"packet"`
}

type commandTable struct {
	Commands map[string]CommandSpec `yaml:"commands"`
}

// Expander turns a named calibration-run script into absolute-timed commands.
type Expander struct {
	table map[string]CommandSpec
}

// NewExpander loads the embedded instrument command table.
func NewExpander() (*Expander, error) {
	var tbl commandTable
	if err := yaml.Unmarshal(commandTableRaw, &tbl); err != nil {
		return nil, fmt.Errorf("failed to parse command table: %w", err)
	}
	if len(tbl.Commands) == 0 {
		return nil, fmt.Errorf("command table is empty")
	}
	return &Expander{table: tbl.Commands}, nil
}

// Expand materializes the script named runName starting at startDate. Delays
// accumulate into a cursor that starts at the run start time; a step whose
// delay is the duration token uses the planned run duration instead, so the
// stop-science step lands exactly at start + duration. Every produced command
// is stamped with the given sequencer slot.
//
// Expansion fails if the script does not exist, if a step names a mnemonic
// missing from the command table, or if any delay would move the cursor
// backwards.
func (e *Expander) Expand(runName string, scs int, duration float64, startDate string) ([]backstop.Command, error) {
	raw, err := scriptFS.ReadFile("scripts/" + runName + ".RTS")
	if err != nil {
		return nil, fmt.Errorf("no calibration run script for %q: %w", runName, err)
	}

	start, err := chron.SecsFromDate(startDate)
	if err != nil {
		return nil, fmt.Errorf("bad calibration run start time %q: %w", startDate, err)
	}

	var cmds []backstop.Command
	cursor := start
	step := 0

	sc := bufio.NewScanner(strings.NewReader(string(raw)))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}
		step++

		stmt, mnemonic, delta, err := parseStep(line, duration)
		if err != nil {
			return nil, fmt.Errorf("script %s step %d: %w", runName, step, err)
		}
		if delta < 0 {
			return nil, fmt.Errorf("script %s step %d: delay moves time backwards", runName, step)
		}
		cursor += delta

		if stmt != "ACIS" {
			continue
		}
		spec, ok := e.table[mnemonic]
		if !ok {
			return nil, fmt.Errorf("script %s step %d: unknown command %q", runName, step, mnemonic)
		}

		cmd := backstop.Command{
			Kind:   backstop.KindACISPkt,
			TLMSID: mnemonic,
			SCS:    scs,
			Step:   step,
			Params: map[string]any{
				"TLMSID":     mnemonic,
				"CMDS":       spec.Cmds,
				"WORDS":      spec.Words,
				"PACKET(40)": spec.Packet,
				"SCS":        scs,
				"STEP":       step,
			},
			ParamStr: fmt.Sprintf("TLMSID= %s, CMDS= %d, WORDS= %d, PACKET(40)= %s, SCS= %d, STEP= %d",
				mnemonic, spec.Cmds, spec.Words, spec.Packet, scs, step),
		}
		cmd.SetTime(cursor)
		cmds = append(cmds, cmd)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading script %s: %w", runName, err)
	}
	return cmds, nil
}

// parseStep splits one script line into its statement type, mnemonic, and
// resolved delay in seconds. A line with no DELTA clause executes at the
// current cursor.
func parseStep(line string, duration float64) (stmt, mnemonic string, delta float64, err error) {
	fields := strings.Split(strings.ReplaceAll(line, " ", ""), ",")
	if len(fields) < 2 {
		return "", "", 0, fmt.Errorf("malformed step %q", line)
	}
	stmt = fields[0]
	mnemonic = fields[1]

	for _, f := range fields[2:] {
		val, ok := strings.CutPrefix(f, "DELTA=")
		if !ok {
			continue // substitution parameter, not relevant to timing
		}
		if val == durationToken {
			return stmt, mnemonic, duration, nil
		}
		delta, err = parseDelay(val)
		if err != nil {
			return "", "", 0, fmt.Errorf("bad delay in %q: %w", line, err)
		}
		return stmt, mnemonic, delta, nil
	}
	return stmt, mnemonic, 0, nil
}

// parseDelay converts an hh:mm:ss.sss script delay into seconds.
func parseDelay(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("expected hh:mm:ss.sss, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("bad hours %q", parts[0])
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("bad minutes %q", parts[1])
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("bad seconds %q", parts[2])
	}
	return float64(h)*3600 + float64(m)*60 + sec, nil
}

// ParseDuration converts a ddd:hh:mm:ss run duration, as recorded in the
// event tracking file, into seconds.
func ParseDuration(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return 0, fmt.Errorf("expected ddd:hh:mm:ss duration, got %q", s)
	}
	var total float64
	for i, mult := range []float64{86400, 3600, 60, 1} {
		v, err := strconv.Atoi(parts[i])
		if err != nil || v < 0 {
			return 0, fmt.Errorf("bad duration field %q in %q", parts[i], s)
		}
		total += float64(v) * mult
	}
	return total, nil
}
