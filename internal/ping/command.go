package ping

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnparsable is returned when ping output has no RTT summary.
var ErrUnparsable = errors.New("could not parse ping output")

// CommandPinger runs the system ping binary.
type CommandPinger struct {
	Path string
}

// LookupCommand finds ping in PATH.
func LookupCommand() (*CommandPinger, error) {
	path, err := exec.LookPath("ping")
	if err != nil {
		return nil, err
	}
	return &CommandPinger{Path: path}, nil
}

// Ping implements Pinger.
func (p *CommandPinger) Ping(ctx context.Context, host string, count int) (Result, error) {
	cmd := exec.CommandContext(ctx, p.Path, "-c", strconv.Itoa(count), host)
	out, err := cmd.Output()
	if err != nil {
		return Result{}, fmt.Errorf("ping %s: %w", host, err)
	}
	return ParseOutput(string(out))
}

var packetsRe = regexp.MustCompile(`(\d+) packets transmitted, (\d+) (?:packets )?received`)

// ParseOutput reads the summary of Linux ("rtt min/avg/max/mdev") or BSD
// ("round-trip min/avg/max/stddev") ping output.
func ParseOutput(out string) (Result, error) {
	var res Result
	found := false
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if m := packetsRe.FindStringSubmatch(line); m != nil {
			res.Sent, _ = strconv.Atoi(m[1])
			res.Received, _ = strconv.Atoi(m[2])
			continue
		}
		if !strings.Contains(line, "min/avg/max") {
			continue
		}
		_, values, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		values = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(values), "ms"))
		parts := strings.Split(values, "/")
		if len(parts) < 3 {
			continue
		}
		nums := make([]float64, 3)
		var err error
		for i := range nums {
			if nums[i], err = strconv.ParseFloat(strings.TrimSpace(parts[i]), 64); err != nil {
				return Result{}, fmt.Errorf("%w: %q", ErrUnparsable, line)
			}
		}
		res.MinMs, res.AvgMs, res.MaxMs = nums[0], nums[1], nums[2]
		found = true
	}
	if !found {
		return res, ErrUnparsable
	}
	return res, nil
}
