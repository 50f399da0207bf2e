package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
)

// sizeFromEnv reads COLUMNS and LINES, which shells export to scripts and
// which take precedence over what the console reports.
func sizeFromEnv() (cols, rows int, ok bool) {
	c, err := strconv.Atoi(os.Getenv("COLUMNS"))
	if err != nil || c <= 0 {
		return 0, 0, false
	}
	r, err := strconv.Atoi(os.Getenv("LINES"))
	if err != nil || r <= 0 {
		return 0, 0, false
	}
	return c, r, true
}

// canInitializeTUI opens and releases a tcell screen.
func canInitializeTUI() bool {
	screen, err := tcell.NewScreen()
	if err != nil {
		return false
	}
	if err := screen.Init(); err != nil {
		return false
	}
	screen.Fini()
	return true
}

// determineTUIMode reports whether serve will end up drawing the TUI,
// either directly or through a pseudo-TTY re-exec.
func determineTUIMode() bool {
	switch {
	case noTUI:
		return false
	case forceTUI, canInitializeTUI():
		return true
	default:
		return needsPseudoTTY()
	}
}

// getTerminalInfo summarizes the terminal for the startup log.
func getTerminalInfo() string {
	term := os.Getenv("TERM")
	if term == "" {
		term = "<not set>"
	}
	info := []string{"TERM=" + term}
	if p := os.Getenv("TERM_PROGRAM"); p != "" {
		info = append(info, "TERM_PROGRAM="+p)
	}
	if w, h := getTerminalSize(); w > 0 && h > 0 {
		info = append(info, fmt.Sprintf("Size=%dx%d", w, h))
	}
	info = append(info, "TTY="+yesNo(isTerminal()), "Colors="+yesNo(supportsColors()))
	return strings.Join(info, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

var colorTerms = []string{"color", "256", "truecolor", "24bit", "xterm", "screen", "tmux", "linux", "ansi"}

func supportsColors() bool {
	if os.Getenv("COLORTERM") != "" {
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	for _, t := range colorTerms {
		if strings.Contains(term, t) {
			return true
		}
	}
	return false
}

// needsPseudoTTY reports whether the process has no controlling terminal.
func needsPseudoTTY() bool {
	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return true
	}
	f.Close()
	return false
}

// runWithPseudoTTY re-runs serve under script(1) so tcell gets a terminal.
func runWithPseudoTTY(cmd *cobra.Command, args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	argv := append([]string{exe, "serve"}, args...)
	if !cmd.Flags().Changed("force-tui") {
		argv = append(argv, "--force-tui")
	}
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = strconv.Quote(a)
	}
	line := "TERM=" + os.Getenv("TERM") + " " + strings.Join(quoted, " ")

	script := exec.Command("script", "-qec", line, "/dev/null")
	script.Stdin, script.Stdout, script.Stderr = os.Stdin, os.Stdout, os.Stderr
	script.Env = os.Environ()
	return script.Run()
}

// getWorkingDir falls back to the executable's directory, then ".".
func getWorkingDir() string {
	if wd, err := os.Getwd(); err == nil && wd != "" {
		return wd
	}
	if exe, err := os.Executable(); err == nil {
		return filepath.Dir(exe)
	}
	return "."
}

// resolvePathRelativeToBase joins relative paths onto base.
func resolvePathRelativeToBase(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, strings.TrimPrefix(p, "./"))
}
