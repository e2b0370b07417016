// Package clipboard copies text to the system clipboard through the
// platform's clipboard command.
package clipboard

import (
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnavailable is returned when no clipboard command is installed.
var ErrUnavailable = errors.New("no clipboard command available")

// Write copies text to the system clipboard.
func Write(text string) error {
	args := command(runtime.GOOS, os.Getenv("WAYLAND_DISPLAY") != "", exec.LookPath)
	if args == nil {
		return ErrUnavailable
	}
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// Available reports whether Write has a command to run.
func Available() bool {
	return command(runtime.GOOS, os.Getenv("WAYLAND_DISPLAY") != "", exec.LookPath) != nil
}

// command picks the clipboard command for goos, preferring wl-copy on Wayland
// sessions, then xclip, then xsel.
func command(goos string, wayland bool, lookPath func(string) (string, error)) []string {
	switch goos {
	case "darwin":
		return []string{"pbcopy"}
	case "windows":
		return []string{"cmd", "/c", "clip"}
	}

	var candidates [][]string
	if wayland {
		candidates = append(candidates, []string{"wl-copy"})
	}
	candidates = append(candidates,
		[]string{"xclip", "-selection", "clipboard"},
		[]string{"xsel", "--clipboard", "--input"},
	)
	for _, c := range candidates {
		if _, err := lookPath(c[0]); err == nil {
			return c
		}
	}
	return nil
}
