// Package systemd queries the service manager for the state of units.
//
// A single systemctl invocation is made per query, without a shell:
//
//	systemctl show --property=ActiveState,SubState,Description --no-pager -- a.service b.service
//
// systemctl prints one block of Key=Value lines per unit, in argument order,
// separated by blank lines.
package systemd

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Properties requested from systemctl.
var Properties = []string{"ActiveState", "SubState", "Description"}

// Status is the reported state of one unit.
type Status struct {
	Name        string
	ActiveState string // e.g. active, inactive, failed
	SubState    string // e.g. running, dead, exited
	Description string
}

// Active reports whether the unit is in the "active" state.
func (s Status) Active() bool {
	return s.ActiveState == "active"
}

// Runner runs a command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.Wrapf(err, "%s: %s", name, msg)
		}
		return nil, errors.Wrap(err, name)
	}
	return stdout.Bytes(), nil
}

// Client queries unit states through systemctl.
type Client struct {
	Runner    Runner
	Systemctl string // path or name of the binary; "systemctl" when empty
}

// NewClient returns a Client that runs the real systemctl.
func NewClient() *Client {
	return &Client{Runner: ExecRunner{}}
}

var unitNameRegex = regexp.MustCompile(`^[A-Za-z0-9@:._-]+$`)

// ValidUnitName reports whether name may be passed to systemctl as a unit.
func ValidUnitName(name string) bool {
	return unitNameRegex.MatchString(name) && !strings.HasPrefix(name, "-")
}

// Services returns the status of each named unit, in the order given.
func (c *Client) Services(ctx context.Context, names []string) ([]Status, error) {
	if len(names) == 0 {
		return nil, nil
	}
	for _, name := range names {
		if !ValidUnitName(name) {
			return nil, errors.Errorf("invalid unit name %q", name)
		}
	}

	var bin = c.Systemctl
	if bin == "" {
		bin = "systemctl"
	}
	var args = []string{"show", "--property=" + strings.Join(Properties, ","), "--no-pager", "--"}
	out, err := c.Runner.Run(ctx, bin, append(args, names...)...)
	if err != nil {
		return nil, errors.Wrap(err, "query units")
	}

	blocks, err := parseShow(out)
	if err != nil {
		return nil, err
	}
	if len(blocks) != len(names) {
		return nil, errors.Errorf("systemctl returned %d unit blocks for %d units", len(blocks), len(names))
	}

	var statuses = make([]Status, len(names))
	for i, props := range blocks {
		statuses[i] = Status{
			Name:        names[i],
			ActiveState: props["ActiveState"],
			SubState:    props["SubState"],
			Description: props["Description"],
		}
	}
	return statuses, nil
}

// parseShow splits systemctl show output into one property map per unit.
func parseShow(out []byte) ([]map[string]string, error) {
	var (
		blocks  []map[string]string
		current map[string]string
		scanner = bufio.NewScanner(bytes.NewReader(out))
		lineNum = 0
	)
	for scanner.Scan() {
		lineNum++
		var line = strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			current = nil
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, errors.Errorf("systemctl output line %d: expected Key=Value, got %q", lineNum, line)
		}
		if current == nil {
			current = make(map[string]string)
			blocks = append(blocks, current)
		}
		current[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read systemctl output")
	}
	return blocks, nil
}
