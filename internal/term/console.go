// Package term is the chat display and the line editor user input comes from.
package term

import (
	"bufio"
	"io"
	"os"
	"sync"

	"github.com/muesli/termenv"
	xterm "golang.org/x/term"

	"github.com/vovakirdan/ircterm/internal/core"
)

// Console renders chat lines and reads user input. When both ends are
// terminals it runs a raw-mode line editor whose prompt survives output
// written while the user types; otherwise it reads and writes plain lines.
type Console struct {
	output *termenv.Output
	rich   bool

	// interactive mode
	terminal *xterm.Terminal
	fd       int
	oldState *xterm.State

	// plain mode
	scanner *bufio.Scanner

	mu  sync.Mutex
	out io.Writer
	alt bool
}

// New builds a console over in and out. It switches stdin to raw mode when
// in and out are terminals; Close restores it.
func New(in io.Reader, out io.Writer, prompt string) (*Console, error) {
	inFile, inOK := in.(*os.File)
	outFile, outOK := out.(*os.File)
	if !inOK || !outOK || !xterm.IsTerminal(int(inFile.Fd())) || !xterm.IsTerminal(int(outFile.Fd())) {
		return newConsole(in, out, false, termenv.Ascii), nil
	}

	fd := int(inFile.Fd())
	oldState, err := xterm.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	profile := termenv.NewOutput(outFile).EnvColorProfile()
	terminal := xterm.NewTerminal(struct {
		io.Reader
		io.Writer
	}{in, out}, prompt)

	c := &Console{
		output:   termenv.NewOutput(terminal, termenv.WithProfile(profile)),
		rich:     true,
		terminal: terminal,
		fd:       fd,
		oldState: oldState,
		out:      terminal,
	}
	return c, nil
}

// newConsole builds a console without a line editor. rich enables screen
// control sequences.
func newConsole(in io.Reader, out io.Writer, rich bool, profile termenv.Profile) *Console {
	return &Console{
		output:  termenv.NewOutput(out, termenv.WithProfile(profile)),
		rich:    rich,
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// Interactive reports whether the console drives a terminal.
func (c *Console) Interactive() bool {
	return c.rich
}

// ReadLine blocks for the next line of user input. It returns io.EOF when
// input ends (Ctrl-D on an empty line in interactive mode).
func (c *Console) ReadLine() (string, error) {
	if c.terminal != nil {
		return c.terminal.ReadLine()
	}
	if c.scanner.Scan() {
		return c.scanner.Text(), nil
	}
	if err := c.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Write copies raw bytes to the display.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.Write(p)
}

// Println writes one display line.
func (c *Console) Println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, line+"\n")
}

// EnterAlt switches to a cleared alternate screen. Calling it again while
// the alternate screen is active starts a fresh one.
func (c *Console) EnterAlt() {
	if !c.rich {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.alt {
		c.output.ExitAltScreen()
	}
	c.output.AltScreen()
	c.output.ClearScreen()
	c.alt = true
}

// ExitAlt returns to the normal screen if the alternate one is active.
func (c *Console) ExitAlt() {
	if !c.rich {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.alt {
		c.output.ExitAltScreen()
		c.alt = false
	}
}

// Paint colors s for the console's color profile.
func (c *Console) Paint(s string, color core.Color) string {
	code, ok := ansiCodes[color]
	if !ok {
		return s
	}
	return c.output.String(s).Foreground(c.output.Color(code)).String()
}

var ansiCodes = map[core.Color]string{
	core.ColorRed:     "1",
	core.ColorGreen:   "2",
	core.ColorYellow:  "3",
	core.ColorBlue:    "4",
	core.ColorMagenta: "5",
	core.ColorCyan:    "6",
}

// Close leaves the alternate screen and restores the terminal mode.
func (c *Console) Close() error {
	c.ExitAlt()
	if c.oldState != nil {
		return xterm.Restore(c.fd, c.oldState)
	}
	return nil
}

var (
	_ core.Display = (*Console)(nil)
	_ core.Palette = (*Console)(nil)
)
