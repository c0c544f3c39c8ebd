package backstop

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/acisops/cmdhist/pkg/chron"
)

// Load files are pipe-delimited, one command per line:
//
//	2017:242:23:35:01.280 | 5885631 | ACISPKT | TLMSID= AA00000000, CMDS= 3, WORDS= 3, SCS= 131, STEP= 12
//
// Review and continuity loads live in the load directory as CR*.backstop;
// vehicle-only loads live under vehicle/ as VR*.backstop.

// FindLoadFile returns the single file matching pattern under dir. Zero or
// multiple matches is a configuration error.
func FindLoadFile(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("bad load file pattern %q: %w", pattern, err)
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no load file matching %s in %s", pattern, dir)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("multiple load files matching %s in %s", pattern, dir)
	}
}

// ReadLoad reads the combined-load backstop file (CR*.backstop) in dir and
// returns its commands in file order plus the file's display name.
func ReadLoad(dir string) ([]Command, string, error) {
	path, err := FindLoadFile(dir, "CR*.backstop")
	if err != nil {
		return nil, "", err
	}
	cmds, err := readBackstop(path)
	if err != nil {
		return nil, "", err
	}
	return cmds, filepath.Base(path), nil
}

// ReadVehicleLoad reads the vehicle-only backstop file
// (vehicle/VR*.backstop) for dir.
func ReadVehicleLoad(dir string) ([]Command, string, error) {
	path, err := FindLoadFile(filepath.Join(dir, "vehicle"), "VR*.backstop")
	if err != nil {
		return nil, "", err
	}
	cmds, err := readBackstop(path)
	if err != nil {
		return nil, "", err
	}
	return cmds, filepath.Base(path), nil
}

func readBackstop(path string) ([]Command, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open load file: %w", err)
	}
	defer f.Close()

	var cmds []Command
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", filepath.Base(path), lineNo, err)
		}
		cmds = append(cmds, cmd)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read load file: %w", err)
	}
	return cmds, nil
}

func parseLine(line string) (Command, error) {
	fields := strings.SplitN(line, "|", 4)
	if len(fields) != 4 {
		return Command{}, fmt.Errorf("malformed command line %q", line)
	}

	date := strings.TrimSpace(fields[0])
	secs, err := chron.SecsFromDate(date)
	if err != nil {
		return Command{}, err
	}

	// The VCDU field may carry a trailing sub-frame counter; only the frame
	// counter itself is kept.
	vcduField := strings.Fields(strings.TrimSpace(fields[1]))
	vcdu := 0
	if len(vcduField) > 0 {
		if vcdu, err = strconv.Atoi(vcduField[0]); err != nil {
			return Command{}, fmt.Errorf("malformed VCDU in %q", line)
		}
	}

	cmd := Command{
		Kind:     strings.TrimSpace(fields[2]),
		Date:     date,
		Time:     secs,
		VCDU:     vcdu,
		ParamStr: strings.TrimSpace(fields[3]),
	}
	cmd.Params = ParseParamStr(cmd.ParamStr)

	if v, ok := cmd.Params["TLMSID"].(string); ok {
		cmd.TLMSID = v
	}
	if v, ok := cmd.Params["MSID"].(string); ok {
		cmd.MSID = v
	}
	if v, ok := cmd.Params["SCS"].(int); ok {
		cmd.SCS = v
	}
	if v, ok := cmd.Params["STEP"].(int); ok {
		cmd.Step = v
	}
	return cmd, nil
}

// ParseParamStr parses a rendered parameter string ("K1= V1, K2= V2, ...")
// into a typed parameter map. Integers and floats are converted; everything
// else stays a string. Tokens without an equals sign are ignored.
func ParseParamStr(s string) map[string]any {
	params := make(map[string]any)
	for _, tok := range strings.Split(s, ",") {
		key, val, found := strings.Cut(tok, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		if key == "" {
			continue
		}
		if i, err := strconv.Atoi(val); err == nil {
			params[key] = i
		} else if f, err := strconv.ParseFloat(val, 64); err == nil {
			params[key] = f
		} else {
			params[key] = val
		}
	}
	return params
}
