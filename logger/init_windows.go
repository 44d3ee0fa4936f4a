//go:build windows

package logger

import (
	"os"

	"golang.org/x/sys/windows"
)

// Consoles from Windows 10 build 16257 onwards understand ANSI colors once
// virtual terminal processing is switched on. Logs go to stderr, so both
// handles are tried.
func init() {
	for _, f := range []*os.File{os.Stdout, os.Stderr} {
		h := windows.Handle(f.Fd())

		var mode uint32
		if err := windows.GetConsoleMode(h, &mode); err != nil {
			continue
		}
		if err := windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING); err == nil {
			windowsColors = true
		}
	}
}
