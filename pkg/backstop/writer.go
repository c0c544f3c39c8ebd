package backstop

import (
	"bufio"
	"fmt"
	"os"
)

// WriteCommands writes cmds to path in load-file line format, one command
// per line in the order given. The GET_PITCH pseudo-command is filtered out:
// it is a model probe, not telemetry.
func WriteCommands(path string, cmds []Command) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, cmd := range cmds {
		if cmd.Kind == KindGetPitch {
			continue
		}
		if _, err := fmt.Fprintln(w, formatLine(cmd)); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}

// WriteCommandsDebug appends (or writes, when appendFile is false) cmds to
// path, preceded by a divider line carrying eventID so inserted chunks can
// be told apart when inspecting combiner output. Debug files interleave
// dividers with commands and are not usable as model input.
func WriteCommandsDebug(path string, cmds []Command, eventID string, appendFile bool) error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendFile {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("open debug file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "------------------------------ %s -----------------------------------\n", eventID)
	for _, cmd := range cmds {
		if cmd.Kind == KindGetPitch {
			continue
		}
		fmt.Fprintln(w, formatLine(cmd))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write debug file: %w", err)
	}
	return nil
}

func formatLine(cmd Command) string {
	return fmt.Sprintf("%s | %07d | %s | %s", cmd.Date, cmd.VCDU, cmd.Kind, cmd.ParamStr)
}
