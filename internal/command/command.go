// Package command turns a raw input line into a Command and expands the $$
// placeholder in it.
package command

import (
	"os"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"go.trai.ch/zerr"
)

var (
	// ErrEmptyLine is returned when a blank or comment line reaches the parser.
	ErrEmptyLine = zerr.New("empty command line")

	// ErrMissingRedirectTarget is returned when < or > is the last token on the line.
	ErrMissingRedirectTarget = zerr.New("missing target after redirection operator")
)

// SyntaxError reports a redirection operator with no target.
type SyntaxError struct {
	Operator string
}

func (e *SyntaxError) Error() string {
	return ErrMissingRedirectTarget.Error() + " " + e.Operator
}

func (e *SyntaxError) Unwrap() error {
	return ErrMissingRedirectTarget
}

// pidToken is replaced with the shell's process id.
const pidToken = "$$"

// Command is one parsed input line.
type Command struct {
	Name string
	Args []string
	// Input and Output are redirection targets; empty means inherit the shell's stream.
	Input      string
	Output     string
	Background bool
}

// IsNoop reports whether line is blank or a comment and must not be dispatched.
func IsNoop(line string) bool {
	line = strings.TrimRight(line, "\r\n")
	return strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#")
}

// Parser parses input lines. NullDevice is the default redirection target of
// background commands.
type Parser struct {
	NullDevice string
}

var defaultParser = Parser{NullDevice: os.DevNull}

// Parse parses line with the platform null device.
func Parse(line string) (*Command, error) {
	return defaultParser.Parse(line)
}

// Parse splits line into a Command.
func (p Parser) Parse(line string) (*Command, error) {
	line = strings.TrimRight(line, " \t\r\n")
	if IsNoop(line) {
		return nil, ErrEmptyLine
	}

	c := &Command{}
	if n := len(line); n >= 2 && line[n-1] == '&' && (line[n-2] == ' ' || line[n-2] == '\t') {
		c.Background = true
		line = line[:n-2]
		c.Input = p.NullDevice
		c.Output = p.NullDevice
	}

	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return nil, ErrEmptyLine
	}
	c.Name = tokens[0]

	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok[0] {
		case '<', '>':
			if i+1 >= len(tokens) {
				return nil, &SyntaxError{Operator: tok}
			}
			i++
			if tok[0] == '<' {
				c.Input = tokens[i]
			} else {
				c.Output = tokens[i]
			}
		default:
			c.Args = append(c.Args, tok)
		}
	}
	return c, nil
}

// Expand replaces every $$ in the command's strings with pid.
func (c *Command) Expand(pid int) {
	p := strconv.Itoa(pid)
	c.Name = Expand(c.Name, p)
	for i := range c.Args {
		c.Args[i] = Expand(c.Args[i], p)
	}
	c.Input = Expand(c.Input, p)
	c.Output = Expand(c.Output, p)
}

// Expand replaces non-overlapping occurrences of $$ in s, scanning left to
// right. Inserted text is never scanned again.
func Expand(s, pid string) string {
	idx := strings.Index(s, pidToken)
	if idx < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + len(pid))
	for idx >= 0 {
		b.WriteString(s[:idx])
		b.WriteString(pid)
		s = s[idx+len(pidToken):]
		idx = strings.Index(s, pidToken)
	}
	b.WriteString(s)
	return b.String()
}

// Argv returns the program name followed by its arguments.
func (c *Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Name)
	return append(argv, c.Args...)
}

// String renders the command back into shell syntax.
func (c *Command) String() string {
	var b strings.Builder
	b.WriteString(shellquote.Join(c.Argv()...))
	if c.Input != "" {
		b.WriteString(" < ")
		b.WriteString(shellquote.Join(c.Input))
	}
	if c.Output != "" {
		b.WriteString(" > ")
		b.WriteString(shellquote.Join(c.Output))
	}
	if c.Background {
		b.WriteString(" &")
	}
	return b.String()
}
