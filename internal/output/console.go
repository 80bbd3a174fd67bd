package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/selimozcann/RealityScout/internal/model"
	"github.com/selimozcann/RealityScout/internal/portselect"
	"github.com/selimozcann/RealityScout/internal/statuscolor"
)

// Console renders a run to a terminal. It only reads what it is given.
type Console struct {
	w io.Writer
	// Progress enables intermediate progress lines.
	Progress bool
	mu       sync.Mutex
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}

func joinPorts(ports []uint16) string {
	s := make([]string, len(ports))
	for i, p := range ports {
		s[i] = strconv.Itoa(int(p))
	}
	return strings.Join(s, ", ")
}

// Header prints what is about to be checked.
func (c *Console) Header(v model.Variant, target model.Target, defaultPorts []uint16) {
	if v == model.VariantSNI {
		c.printf("\n%s %s\n", statuscolor.Heading("Checking domain:"), target.Host)
		return
	}
	c.printf("\n%s %s\n", statuscolor.Heading("Checking host:"), target.Host)
	if target.PortSet {
		c.printf("%s %d\n", statuscolor.Heading("Port:"), target.Port)
	} else {
		c.printf("%s %s\n", statuscolor.Heading("Default ports:"), joinPorts(defaultPorts))
	}
}

// PortAttempt prints the result of one port selection attempt.
func (c *Console) PortAttempt(a portselect.Attempt) {
	if a.Err == nil {
		c.printf("%s\n", statuscolor.Positive(fmt.Sprintf("Port %d available. Proceeding with check...", a.Port)))
		return
	}
	c.printf("%s\n", statuscolor.Negative(fmt.Sprintf("Port %d unavailable. Trying next port...", a.Port)))
}

// Status prints one live status event.
func (c *Console) Status(s model.Status) {
	switch s.Phase {
	case model.PhaseStarted:
		if c.Progress {
			c.printf("  %s %s\n", statuscolor.Gray("["+string(s.Kind)+"]"), statuscolor.Gray("started"))
		}
	case model.PhaseProgress:
		if c.Progress {
			c.printf("  %s %s\n", statuscolor.Gray("["+string(s.Kind)+"]"), statuscolor.Gray(s.Message))
		}
	case model.PhaseDone:
		if s.Outcome == nil {
			return
		}
		mark := "+"
		if s.Outcome.Negative() {
			mark = "-"
		}
		c.printf("  [%s] %s\n", statuscolor.Outcome(mark, *s.Outcome), statuscolor.Outcome(s.Outcome.Evidence, *s.Outcome))
	}
}

// Stream renders events until the channel is closed. The returned channel
// is closed once every event has been printed.
func (c *Console) Stream(events <-chan model.Status) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			c.Status(ev)
		}
	}()
	return done
}

var variantLabel = map[model.Variant]struct {
	yes, no, others, name string
}{
	model.VariantDest: {
		yes:    "Site is suitable for DEST for Reality for the following reasons:",
		no:     "Site is NOT suitable for DEST for Reality for the following reasons:",
		others: "Positive points:",
		name:   "dest",
	},
	model.VariantSNI: {
		yes:    "Site is suitable as SNI for Reality for the following reasons:",
		no:     "Site is not suitable as SNI for Reality for the following reasons:",
		others: "Positive aspects:",
		name:   "SNI",
	},
}

// Final prints the results block and the verdict line.
func (c *Console) Final(rep *model.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	label := variantLabel[rep.Variant]
	v := rep.Verdict

	fmt.Fprintf(c.w, "\n%s\n\n", statuscolor.Heading("===== Check Results ====="))
	if v.Acceptable {
		fmt.Fprintln(c.w, statuscolor.Verdict(label.yes, true))
		for _, p := range v.Positives {
			fmt.Fprintln(c.w, statuscolor.Positive("- "+p))
		}
	} else {
		fmt.Fprintln(c.w, statuscolor.Verdict(label.no, false))
		for _, n := range v.Negatives {
			fmt.Fprintln(c.w, statuscolor.Negative("- "+n))
		}
		if len(v.Positives) > 0 {
			fmt.Fprintf(c.w, "\n%s\n", statuscolor.Verdict(label.others, true))
			for _, p := range v.Positives {
				fmt.Fprintln(c.w, statuscolor.Positive("- "+p))
			}
		}
	}

	line := fmt.Sprintf("Host %s is suitable as %s", rep.Target.Addr(), label.name)
	if !v.Acceptable {
		line = fmt.Sprintf("Host %s is NOT suitable as %s", rep.Target.Addr(), label.name)
	}
	fmt.Fprintf(c.w, "\n%s\n", statuscolor.Verdict(line, v.Acceptable))
}
