package backstop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acisops/cmdhist/pkg/chron"
)

func TestCloneDoesNotAliasParams(t *testing.T) {
	tmpl := DefaultTemplates()
	a, ok := tmpl.PowerCommand("WSPOW00000")
	require.True(t, ok)
	b, ok := tmpl.PowerCommand("WSPOW00000")
	require.True(t, ok)

	a.Params["SCS"] = 999
	assert.Equal(t, 135, b.Params["SCS"], "mutating one copy must not affect another")

	c, ok := tmpl.PowerCommand("WSPOW00000")
	require.True(t, ok)
	assert.Equal(t, 135, c.Params["SCS"], "template itself must stay frozen")
}

func TestSetTimeKeepsDateConsistent(t *testing.T) {
	var cmd Command
	cmd.SetTime(chron.MustSecs("2020:100:00:00:00.000"))
	assert.Equal(t, "2020:100:00:00:00.000", cmd.Date)

	secs, err := chron.SecsFromDate(cmd.Date)
	require.NoError(t, err)
	assert.Equal(t, cmd.Time, secs)
}

func TestSortByTimeIsStable(t *testing.T) {
	cmds := []Command{
		{Kind: KindACISPkt, Time: 100, Step: 1},
		{Kind: KindACISPkt, Time: 50, Step: 2},
		{Kind: KindACISPkt, Time: 100, Step: 3},
		{Kind: KindACISPkt, Time: 100, Step: 4},
	}
	SortByTime(cmds)

	require.Len(t, cmds, 4)
	assert.Equal(t, float64(50), cmds[0].Time)
	// The three tied commands keep their original relative order.
	assert.Equal(t, []int{2, 1, 3, 4}, []int{cmds[0].Step, cmds[1].Step, cmds[2].Step, cmds[3].Step})
}

func TestSafingSequenceTemplateShape(t *testing.T) {
	seq := DefaultTemplates().SafingSequence()
	require.Len(t, seq, 4)

	assert.Equal(t, KindSIMTrans, seq[0].Kind)
	assert.Equal(t, TLMSIDStopScience, seq[1].TLMSID)
	assert.Equal(t, TLMSIDStopScience, seq[2].TLMSID)
	assert.Equal(t, "WSPOW00000", seq[3].TLMSID)

	// Mutating the returned burst must not leak into the table.
	seq[1].Params["CMDS"] = 0
	again := DefaultTemplates().SafingSequence()
	assert.Equal(t, 3, again[1].Params["CMDS"])
}

func TestPowerCommandUnknownName(t *testing.T) {
	tmpl := DefaultTemplates()
	_, ok := tmpl.PowerCommand("WSPOWXXXXX")
	assert.False(t, ok)
	assert.False(t, tmpl.IsPowerCommand("WSPOWXXXXX"))
	assert.True(t, tmpl.IsPowerCommand("WSVIDALLDN"))
}

func TestPowerCommandNamesMatchTemplates(t *testing.T) {
	names := PowerCommandNames()
	assert.Equal(t, []string{"WSPOW00000", "WSPOW0002A", "WSVIDALLDN"}, names)

	tmpl := DefaultTemplates()
	for _, name := range names {
		cmd, ok := tmpl.PowerCommand(name)
		require.True(t, ok, name)
		assert.Equal(t, name, cmd.TLMSID)
	}
}
