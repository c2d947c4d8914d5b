package cplscheme

import (
	"fmt"
	"strings"
)

// PrintBasicState summarizes the time stepping state in one line, for
// example "dt# 3 of 10 | t 0.3 of 1 | dt 0.1 | max dt 0.1 | ongoing yes |
// dt complete no".
func (s *Base) PrintBasicState() string {
	return s.printBasicState(s.Timesteps(), s.Time())
}

func (s *Base) printBasicState(timesteps int, time float64) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "dt# %d", timesteps)

	if s.MaxTimesteps() != UndefinedTimesteps {
		fmt.Fprintf(&sb, " of %d", s.MaxTimesteps())
	}

	fmt.Fprintf(&sb, " | t %.6g", time)

	if s.MaxTime() != UndefinedTime {
		fmt.Fprintf(&sb, " of %.6g", s.MaxTime())
	}

	if s.HasTimestepLength() {
		fmt.Fprintf(&sb, " | dt %.6g", s.TimestepLength())
	}

	if s.HasTimestepLength() || s.MaxTime() != UndefinedTime {
		fmt.Fprintf(&sb, " | max dt %.6g", s.NextTimestepMaxLength())
	}

	fmt.Fprintf(&sb, " | ongoing %s", yesNo(s.IsCouplingOngoing()))
	fmt.Fprintf(&sb, " | dt complete %s",
		yesNo(s.IsCouplingTimestepComplete()))

	return sb.String()
}

// PrintActionsState lists the outstanding actions, each followed by " | ".
func (s *Base) PrintActionsState() string {
	var sb strings.Builder

	for _, a := range s.action.Actions() {
		sb.WriteString(a.String())
		sb.WriteString(" | ")
	}

	return sb.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}

	return "no"
}
