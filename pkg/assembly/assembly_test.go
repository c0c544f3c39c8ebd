package assembly

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acisops/cmdhist/pkg/backstop"
	"github.com/acisops/cmdhist/pkg/chron"
	"github.com/acisops/cmdhist/pkg/nlet"
	"github.com/acisops/cmdhist/pkg/rts"
	"github.com/acisops/cmdhist/pkg/synth"
)

func newAssembler(t *testing.T, trackingFile string) *Assembler {
	t.Helper()
	path := filepath.Join(t.TempDir(), "NonLoadTrackedEvents.txt")
	require.NoError(t, os.WriteFile(path, []byte(trackingFile), 0o644))

	exp, err := rts.NewExpander()
	require.NoError(t, err)
	return New(synth.New(backstop.DefaultTemplates(), exp), nlet.NewReader(path))
}

const emptyTrackingFile = "#\nGO\n"

func cmdAt(secs float64, tlmsid string) backstop.Command {
	c := backstop.Command{Kind: backstop.KindACISPkt, TLMSID: tlmsid}
	c.SetTime(secs)
	return c
}

func cmdsAt(secs ...float64) []backstop.Command {
	out := make([]backstop.Command, len(secs))
	for i, s := range secs {
		out[i] = cmdAt(s, "XTZ0000005")
	}
	return out
}

func times(cmds []backstop.Command) []float64 {
	out := make([]float64, len(cmds))
	for i, c := range cmds {
		out[i] = c.Time
	}
	return out
}

func assertSorted(t *testing.T, cmds []backstop.Command) {
	t.Helper()
	for i := 1; i < len(cmds); i++ {
		assert.LessOrEqual(t, cmds[i-1].Time, cmds[i].Time)
	}
}

func TestTrimPartitionProperty(t *testing.T) {
	list := cmdsAt(10, 20, 20, 30, 40)
	for _, cutoff := range []float64{5, 10, 20, 25, 40, 100} {
		before := TrimAfter(list, cutoff)
		after := TrimBefore(list, cutoff)
		assert.Equal(t, list, append(append([]backstop.Command{}, before...), after...),
			"cutoff %v must partition the list exactly", cutoff)
	}
}

func TestTrimBoundaryAsymmetry(t *testing.T) {
	list := cmdsAt(100)
	assert.Empty(t, TrimAfter(list, 100))
	assert.Len(t, TrimBefore(list, 100), 1)
}

func TestCombineTimeCut(t *testing.T) {
	a := newAssembler(t, emptyTrackingFile)

	pred := cmdsAt(90, 95, 99)
	cont := cmdsAt(96, 101)
	require.NoError(t, a.CombineTimeCut(pred, cont))

	assert.Equal(t, []float64{90, 95, 96, 101}, times(a.Master()))
}

func TestCombineTimeCutKeepsBoundaryOnBothSides(t *testing.T) {
	a := newAssembler(t, emptyTrackingFile)

	pred := cmdsAt(90, 96, 99)
	cont := cmdsAt(96, 101)
	require.NoError(t, a.CombineTimeCut(pred, cont))

	// The replan boundary instant survives from both loads.
	assert.Equal(t, []float64{90, 96, 96, 101}, times(a.Master()))
}

func TestCombineNormalIsIdempotentOnMergedList(t *testing.T) {
	a := newAssembler(t, emptyTrackingFile)

	merged := cmdsAt(90, 95, 96, 101)
	require.NoError(t, a.CombineNormal(merged[:2], merged[2:]))
	assert.Equal(t, merged, a.Master())
	assertSorted(t, a.Master())
}

func TestCombineEmptyLoadsAreFatal(t *testing.T) {
	a := newAssembler(t, emptyTrackingFile)

	err := a.CombineNormal(nil, cmdsAt(10))
	require.ErrorIs(t, err, ErrEmptyLoad)
	assert.Contains(t, err.Error(), "predecessor")

	err = a.CombineNormal(cmdsAt(10), nil)
	require.ErrorIs(t, err, ErrEmptyLoad)
	assert.Contains(t, err.Error(), "continuation")

	err = a.CombineScienceOnly(cmdsAt(10), nil, cmdsAt(20), 15)
	require.ErrorIs(t, err, ErrEmptyLoad)
	assert.Contains(t, err.Error(), "vehicle")
}

const fullStopTrackingFile = `# Non-load event tracking
GO
2019:248:16:51:18.000 STOP
2019:249:02:02:00.000 MAN 158.69 287.30 -0.54575217 0.27602059 -0.17408410 0.77179134
2019:250:12:00:00.000 WSPOW0002A 4567
`

func TestCombineFullStop(t *testing.T) {
	a := newAssembler(t, fullStopTrackingFile)

	shutdown := chron.MustSecs("2019:248:16:51:18.000")
	pred := cmdsAt(shutdown-3600, shutdown, shutdown+3600)
	cont := cmdsAt(
		chron.MustSecs("2019:252:00:00:00.000"),
		chron.MustSecs("2019:252:01:00:00.000"),
	)

	require.NoError(t, a.CombineFullStop(pred, cont, shutdown))
	master := a.Master()
	assertSorted(t, master)

	// Strict cut: nothing from the predecessor survives at or past the
	// shutdown instant except the safing burst and synthesized events.
	for _, c := range master {
		if c.Time >= shutdown && c.Time < shutdown+1 {
			t.Fatalf("predecessor command at %v survived the shutdown cut", c.Time)
		}
	}

	// 1 kept + 4 safing + maneuver pair + power command + 2 continuation.
	require.Len(t, master, 10)

	safing := master[1:5]
	assert.Equal(t, backstop.KindSIMTrans, safing[0].Kind)
	assert.InDelta(t, shutdown+1, safing[0].Time, 1e-6)
	assert.InDelta(t, shutdown+13, safing[3].Time, 1e-6)
	assertSorted(t, safing)

	assert.Equal(t, backstop.KindTargQuat, master[5].Kind)
	assert.Equal(t, "AOMANUVR", master[6].TLMSID)
	assert.Equal(t, "WSPOW0002A", master[7].TLMSID)
}

func TestCombineScienceOnly(t *testing.T) {
	a := newAssembler(t, fullStopTrackingFile)

	shutdown := chron.MustSecs("2019:248:16:51:18.000")
	contStart := chron.MustSecs("2019:252:00:00:00.000")

	pred := cmdsAt(shutdown-3600, shutdown+3600)
	vehicle := cmdsAt(shutdown-10, shutdown, contStart-1, contStart)
	cont := cmdsAt(contStart, contStart+3600)

	require.NoError(t, a.CombineScienceOnly(pred, vehicle, cont, shutdown))
	master := a.Master()
	assertSorted(t, master)

	// Vehicle-only commanding never stopped, so the recorded maneuver is not
	// synthesized here; the power command still is.
	for _, c := range master {
		assert.NotEqual(t, backstop.KindTargQuat, c.Kind)
	}

	// 1 kept + 4 safing + 2 vehicle (boundary kept at shutdown, dropped at
	// continuation start) + 1 power + 2 continuation.
	require.Len(t, master, 10)
	assert.InDelta(t, shutdown, master[1].Time, 1e-6) // vehicle command at the cut
}

const coTimedTrackingFile = `# Non-load event tracking
GO
2019:248:16:51:18.000 STOP
2019:248:16:51:18.000 MAN 158.69 287.30 -0.54575217 0.27602059 -0.17408410 0.77179134
2019:248:16:51:18.000 WSPOW00000 4568
`

func TestCombineFullStopKeepsEventsAtShutdownInstant(t *testing.T) {
	a := newAssembler(t, coTimedTrackingFile)

	shutdown := chron.MustSecs("2019:248:16:51:18.000")
	pred := cmdsAt(shutdown - 3600)
	cont := cmdsAt(chron.MustSecs("2019:252:00:00:00.000"))

	require.NoError(t, a.CombineFullStop(pred, cont, shutdown))
	master := a.Master()
	assertSorted(t, master)

	// Operators stamp the events a shutdown triggers with the shutdown time
	// itself. The maneuver and power command recorded at that instant must be
	// synthesized; the co-timed shutdown marker itself yields nothing.
	var targquat, manuvr, power int
	for _, c := range master {
		switch {
		case c.Kind == backstop.KindTargQuat:
			targquat++
		case c.TLMSID == "AOMANUVR":
			manuvr++
		case c.TLMSID == "WSPOW00000" && c.Kind == backstop.KindACISPkt && c.SCS == 135:
			power++
		}
	}
	assert.Equal(t, 1, targquat)
	assert.Equal(t, 1, manuvr)
	assert.Equal(t, 1, power)
}

func TestCombineScienceOnlyKeepsPowerCommandAtShutdownInstant(t *testing.T) {
	a := newAssembler(t, coTimedTrackingFile)

	shutdown := chron.MustSecs("2019:248:16:51:18.000")
	contStart := chron.MustSecs("2019:252:00:00:00.000")
	pred := cmdsAt(shutdown - 3600)
	vehicle := cmdsAt(shutdown + 60)
	cont := cmdsAt(contStart)

	require.NoError(t, a.CombineScienceOnly(pred, vehicle, cont, shutdown))
	master := a.Master()
	assertSorted(t, master)

	// The co-timed power command is picked up; the co-timed maneuver is not,
	// since vehicle commanding never stopped.
	var power int
	for _, c := range master {
		assert.NotEqual(t, backstop.KindTargQuat, c.Kind)
		assert.NotEqual(t, "AOMANUVR", c.TLMSID)
		if c.TLMSID == "WSPOW00000" && c.SCS == 135 {
			power++
		}
	}
	assert.Equal(t, 1, power)
}

const calRunTrackingFile = `GO
2020:099:12:00:00.000 S107
2020:100:00:00:00.000 LTCTI 123 1_4_CTI 001:00:00:00
`

func TestCombineFullStopCalibrationRunKeptInFull(t *testing.T) {
	a := newAssembler(t, calRunTrackingFile)

	shutdown := chron.MustSecs("2020:099:12:00:00.000")
	runStart := chron.MustSecs("2020:100:00:00:00.000")
	pred := cmdsAt(shutdown - 3600)
	cont := []backstop.Command{
		cmdAt(chron.MustSecs("2020:101:00:00:00.000"), "AOMANUVR"),
	}

	require.NoError(t, a.CombineFullStop(pred, cont, shutdown))
	master := a.Master()
	assertSorted(t, master)

	// No stop-science in the continuation, so the run was never interrupted
	// and extends the full planned 24 hours past its lead-in.
	var runStops []float64
	for _, c := range master {
		if c.TLMSID == backstop.TLMSIDStopScience && c.SCS == 135 {
			runStops = append(runStops, c.Time)
		}
	}
	require.Len(t, runStops, 1)
	assert.InDelta(t, runStart+10+86400, runStops[0], 1e-6)
}

func TestCombineFullStopCalibrationRunCompletionCutoff(t *testing.T) {
	a := newAssembler(t, calRunTrackingFile)

	shutdown := chron.MustSecs("2020:099:12:00:00.000")
	runStart := chron.MustSecs("2020:100:00:00:00.000")
	pred := cmdsAt(shutdown - 3600)
	// The continuation resumes science five seconds into day 101; the run's
	// own stop-science and power-down land after that and must be dropped.
	cont := []backstop.Command{
		cmdAt(chron.MustSecs("2020:101:00:00:00.000"), "WSVIDALLDN"),
		cmdAt(chron.MustSecs("2020:101:00:00:05.000"), backstop.TLMSIDStopScience),
	}

	require.NoError(t, a.CombineFullStop(pred, cont, shutdown))

	var runCmds []backstop.Command
	for _, c := range a.Master() {
		if c.SCS == 135 && c.Kind == backstop.KindACISPkt {
			runCmds = append(runCmds, c)
		}
	}
	require.Len(t, runCmds, 4)
	assert.InDelta(t, runStart+9, runCmds[3].Time, 1e-6)
	for _, c := range runCmds {
		assert.NotEqual(t, backstop.TLMSIDStopScience, c.TLMSID)
	}
}

const chainedTrackingFile = `GO
2021:010:00:00:00.000 WSPOW0002A 100
2021:020:00:00:00.000 WSVIDALLDN 101
`

func TestChainedCombinesConsumeEachWindowOnce(t *testing.T) {
	a := newAssembler(t, chainedTrackingFile)

	loadA := cmdsAt(chron.MustSecs("2021:005:00:00:00.000"), chron.MustSecs("2021:012:00:00:00.000"))
	loadB := cmdsAt(chron.MustSecs("2021:015:00:00:00.000"), chron.MustSecs("2021:022:00:00:00.000"))
	loadC := cmdsAt(chron.MustSecs("2021:025:00:00:00.000"), chron.MustSecs("2021:028:00:00:00.000"))

	// Backward chain assembly: newest pair first, then prepend the older
	// load. The second call must not replay the window the first consumed.
	require.NoError(t, a.CombineNormal(loadB, loadC))
	require.NoError(t, a.CombineNormal(loadA, a.Master()))

	var power int
	for _, c := range a.Master() {
		if c.TLMSID == "WSPOW0002A" || c.TLMSID == "WSVIDALLDN" {
			power++
		}
	}
	assert.Equal(t, 2, power)
	assertSorted(t, a.Master())
}

func TestParseScenario(t *testing.T) {
	tests := []struct {
		in      string
		want    Scenario
		wantErr bool
	}{
		{in: "normal", want: ScenarioNormal},
		{in: "Normal", want: ScenarioNormal},
		{in: "TOO", want: ScenarioTimeCut},
		{in: "time-cut", want: ScenarioTimeCut},
		{in: "STOP", want: ScenarioFullStop},
		{in: "full-stop", want: ScenarioFullStop},
		{in: "SCS-107", want: ScenarioScienceOnly},
		{in: "science-only", want: ScenarioScienceOnly},
		{in: "scs107", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseScenario(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
