package monitoring

import (
	"sync"

	"github.com/ArminHamedi/precice/cplscheme"
)

// schemeStatus is what the monitor reports about a scheme. It is captured on
// the goroutine that drives the scheme, so that requests never touch the
// scheme itself.
type schemeStatus struct {
	Name            string   `json:"name"`
	Participant     string   `json:"participant"`
	BasicState      string   `json:"basic_state"`
	ActionsState    string   `json:"actions_state"`
	Time            float64  `json:"time"`
	Timesteps       int      `json:"timesteps"`
	Iterations      int      `json:"iterations"`
	TotalIterations int      `json:"total_iterations"`
	Ongoing         bool     `json:"ongoing"`
	RequiredActions []string `json:"required_actions"`
}

type monitoredScheme struct {
	scheme cplscheme.CouplingScheme
	bar    *ProgressBar

	lock   sync.Mutex
	status schemeStatus
}

// Func advances the progress bar and refreshes the status.
func (s *monitoredScheme) Func(ctx cplscheme.HookCtx) {
	switch ctx.Pos {
	case cplscheme.HookPosTimestepComplete:
		s.bar.FinishInProgress()
	case cplscheme.HookPosIterationComplete:
		if info, ok := ctx.Item.(cplscheme.IterationInfo); ok && !info.Converged {
			s.bar.IncrementInProgress(1)
		}
	default:
		return
	}

	s.capture()
}

func (s *monitoredScheme) capture() {
	actions := s.scheme.RequiredActions()
	tokens := make([]string, 0, len(actions))

	for _, a := range actions {
		tokens = append(tokens, a.String())
	}

	status := schemeStatus{
		Name:            s.scheme.Name(),
		Participant:     s.scheme.LocalParticipant(),
		BasicState:      s.scheme.PrintBasicState(),
		ActionsState:    s.scheme.PrintActionsState(),
		Time:            s.scheme.Time(),
		Timesteps:       s.scheme.Timesteps(),
		Iterations:      s.scheme.Iterations(),
		TotalIterations: s.scheme.TotalIterations(),
		Ongoing:         s.scheme.IsCouplingOngoing(),
		RequiredActions: tokens,
	}

	s.lock.Lock()
	s.status = status
	s.lock.Unlock()
}

func (s *monitoredScheme) snapshot() schemeStatus {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.status
}
