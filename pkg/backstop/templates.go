package backstop

import "sort"

// TemplateTable is the frozen set of command templates used for synthesis:
// the safing burst, the standalone power commands, and the maneuver pair.
// It is built once at startup and never mutated afterward; every accessor
// hands out deep copies so callers can stamp times and parameters without
// touching the table.
type TemplateTable struct {
	safing       []Command
	power        map[string]Command
	targQuat     Command
	maneuverInit Command
	safeModeInit Command
}

// powerTemplates is the single authoritative set of standalone power-state
// commands. The tracking-file reader derives its recognized-name set from
// these keys via PowerCommandNames, so adding a command here makes it both
// parseable and synthesizable.
var powerTemplates = map[string]Command{
	"WSPOW00000": {
		Kind: KindACISPkt,
		Date: "1900:001", Time: -1.0,
		TLMSID: "WSPOW00000",
		SCS:    135, Step: 1,
		Params: map[string]any{
			"TLMSID": "WSPOW00000", "CMDS": 5, "WORDS": 7,
			"PACKET(40)": "D8000070007030500200000000000010000",
			"SCS":        135, "STEP": 1,
		},
		ParamStr: "TLMSID= WSPOW00000, CMDS= 5, WORDS= 7, PACKET(40)= D8000070007030500200000000000010000, SCS= 135, STEP= 1",
	},
	"WSPOW0002A": {
		Kind: KindACISPkt,
		Date: "1900:001", Time: -1.0,
		TLMSID: "WSPOW0002A",
		SCS:    135, Step: 1,
		Params: map[string]any{
			"TLMSID": "WSPOW0002A", "CMDS": 5, "WORDS": 7,
			"PACKET(40)": "D80000700073E800020000000000001002A",
			"SCS":        135, "STEP": 1,
		},
		ParamStr: "TLMSID= WSPOW0002A, CMDS= 5, WORDS= 7, PACKET(40)= D80000700073E800020000000000001002A, SCS= 135, STEP= 1",
	},
	"WSVIDALLDN": {
		Kind: KindACISPkt,
		Date: "1900:001", Time: -1.0,
		TLMSID: "WSVIDALLDN",
		SCS:    135, Step: 1,
		Params: map[string]any{
			"TLMSID": "WSVIDALLDN", "CMDS": 4, "WORDS": 5,
			"PACKET(40)": "D800005000506050020000000000",
			"SCS":        135, "STEP": 1,
		},
		ParamStr: "TLMSID= WSVIDALLDN, CMDS= 4, WORDS= 5, PACKET(40)= D800005000506050020000000000, SCS= 135, STEP= 1",
	},
}

// PowerCommandNames returns the names of the standalone power-state command
// templates, sorted.
func PowerCommandNames() []string {
	names := make([]string, 0, len(powerTemplates))
	for name := range powerTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultTemplates builds the standard template table. Template dates and
// times are placeholders; synthesis overwrites them before a command is ever
// published.
func DefaultTemplates() *TemplateTable {
	return &TemplateTable{
		safing: []Command{
			{
				Kind: KindSIMTrans,
				Date: "1900:001", Time: -1.0,
				SCS: 108, Step: 1,
				Params:   map[string]any{"POS": -99616, "SCS": 108, "STEP": 1},
				ParamStr: "POS= -99616, SCS= 108, STEP= 1",
			},
			{
				Kind: KindACISPkt, // stop science
				Date: "1900:001", Time: -1.0,
				TLMSID: TLMSIDStopScience,
				SCS:    107, Step: 1,
				Params: map[string]any{
					"TLMSID": TLMSIDStopScience, "CMDS": 3, "WORDS": 3,
					"PACKET(40)": "D80000300030603001300",
					"SCS":        107, "STEP": 1,
				},
				ParamStr: "TLMSID= AA00000000, CMDS= 3, WORDS= 3, PACKET(40)= D80000300030603001300, SCS= 107, STEP= 1",
			},
			{
				Kind: KindACISPkt, // stop science, paired repeat
				Date: "1900:001", Time: -1.0,
				TLMSID: TLMSIDStopScience,
				SCS:    107, Step: 2,
				Params: map[string]any{
					"TLMSID": TLMSIDStopScience, "CMDS": 3, "WORDS": 3,
					"PACKET(40)": "D80000300030603001300",
					"SCS":        107, "STEP": 2,
				},
				ParamStr: "TLMSID= AA00000000, CMDS= 3, WORDS= 3, PACKET(40)= D80000300030603001300, SCS= 107, STEP= 2",
			},
			{
				Kind: KindACISPkt, // power down
				Date: "1900:001", Time: -1.0,
				TLMSID: "WSPOW00000",
				SCS:    107, Step: 3,
				Params: map[string]any{
					"TLMSID": "WSPOW00000", "CMDS": 5, "WORDS": 7,
					"PACKET(40)": "D8000070007030500200000000000010000",
					"SCS":        107, "STEP": 3,
				},
				ParamStr: "TLMSID= WSPOW00000, CMDS= 5, WORDS= 7, PACKET(40)= D8000070007030500200000000000010000, SCS= 107, STEP= 3",
			},
		},
		power: powerTemplates,
		targQuat: Command{
			Kind: KindTargQuat,
			Date: "1900:001", Time: -1.0,
			TLMSID: "AOUPTARQ",
			SCS:    135, Step: 1,
			Params: map[string]any{
				"TLMSID": "AOUPTARQ", "CMDS": 8,
				"Q1": 0.0, "Q2": 0.0, "Q3": 0.0, "Q4": 0.0,
				"SCS": 135, "STEP": 1,
			},
			ParamStr: "TLMSID= AOUPTARQ, CMDS= 8, Q1= 0.0, Q2= 0.0, Q3= 0.0, Q4= 0.0, SCS= 135, STEP= 1",
		},
		maneuverInit: Command{
			Kind: KindCommandSW,
			Date: "1900:001", Time: -1.0,
			TLMSID: "AOMANUVR",
			MSID:   "AOMANUVR",
			SCS:    135, Step: 2,
			Params: map[string]any{
				"TLMSID": "AOMANUVR", "MSID": "AOMANUVR", "HEX": 8034101,
				"SCS": 135, "STEP": 2,
			},
			ParamStr: "TLMSID= AOMANUVR, HEX= 8034101, MSID= AOMANUVR, SCS= 135, STEP= 2",
		},
		safeModeInit: Command{
			Kind: KindCommandSW,
			Date: "1900:001", Time: -1.0,
			TLMSID: "AONSMSAF",
			MSID:   "AONSMSAF",
			SCS:    135, Step: 2,
			Params: map[string]any{
				"TLMSID": "AONSMSAF", "MSID": "AONSMSAF", "HEX": 9999999,
				"SCS": 135, "STEP": 2,
			},
			ParamStr: "TLMSID= AONSMSAF, HEX= 9999999, MSID= AONSMSAF, SCS= 135, STEP= 2",
		},
	}
}

// SafingSequence returns a deep copy of the four-command safing burst
// (attitude stop via SIM translation, two stop-science packets, power down).
func (t *TemplateTable) SafingSequence() []Command {
	out := make([]Command, len(t.safing))
	for i, cmd := range t.safing {
		out[i] = cmd.Clone()
	}
	return out
}

// PowerCommand returns a deep copy of the named power-state command
// template. ok is false for names outside the fixed set.
func (t *TemplateTable) PowerCommand(name string) (Command, bool) {
	cmd, ok := t.power[name]
	if !ok {
		return Command{}, false
	}
	return cmd.Clone(), true
}

// IsPowerCommand reports whether name is one of the known standalone
// power-state commands.
func (t *TemplateTable) IsPowerCommand(name string) bool {
	_, ok := t.power[name]
	return ok
}

// TargQuat returns a deep copy of the target-attitude command template.
func (t *TemplateTable) TargQuat() Command {
	return t.targQuat.Clone()
}

// ManeuverInit returns a deep copy of the maneuver-initiation command
// template.
func (t *TemplateTable) ManeuverInit() Command {
	return t.maneuverInit.Clone()
}

// SafeModeInit returns a deep copy of the safe-mode maneuver-initiation
// command template.
func (t *TemplateTable) SafeModeInit() Command {
	return t.safeModeInit.Clone()
}
