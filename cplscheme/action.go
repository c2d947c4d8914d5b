package cplscheme

import (
	"fmt"
	"sort"
	"strings"
)

// Action is an obligation that the driving application has to fulfill before
// the coupling scheme proceeds.
type Action struct {
	kind actionKind
	name string
}

type actionKind int

const (
	actionExtension actionKind = iota
	actionWriteIterationCheckpoint
	actionReadIterationCheckpoint
	actionWriteInitialData
	actionWriteSimulationCheckpoint
	actionReadSimulationCheckpoint
)

var actionTokens = map[actionKind]string{
	actionWriteIterationCheckpoint:  "write-iteration-checkpoint",
	actionReadIterationCheckpoint:   "read-iteration-checkpoint",
	actionWriteInitialData:          "write-initial-data",
	actionWriteSimulationCheckpoint: "write-simulation-checkpoint",
	actionReadSimulationCheckpoint:  "read-simulation-checkpoint",
}

// The well-known actions.
var (
	// ActionWriteIterationCheckpoint asks the application to store its state
	// before an implicit iteration sequence starts.
	ActionWriteIterationCheckpoint = Action{kind: actionWriteIterationCheckpoint}
	// ActionReadIterationCheckpoint asks the application to restore the
	// stored state because the iteration did not converge.
	ActionReadIterationCheckpoint = Action{kind: actionReadIterationCheckpoint}
	// ActionWriteInitialData asks the application to fill the initial values
	// of the send data before InitializeData is called.
	ActionWriteInitialData = Action{kind: actionWriteInitialData}
	// ActionWriteSimulationCheckpoint asks the application to persist a
	// restart checkpoint.
	ActionWriteSimulationCheckpoint = Action{kind: actionWriteSimulationCheckpoint}
	// ActionReadSimulationCheckpoint asks the application to restore from a
	// restart checkpoint.
	ActionReadSimulationCheckpoint = Action{kind: actionReadSimulationCheckpoint}
)

// ExtensionAction creates an action that is not one of the well-known ones.
// The name must not collide with a well-known token.
func ExtensionAction(name string) Action {
	if name == "" {
		panic("extension action needs a name")
	}

	for _, token := range actionTokens {
		if token == name {
			panic(fmt.Sprintf("action %q is a well-known action", name))
		}
	}

	return Action{kind: actionExtension, name: name}
}

// ParseAction turns a token into an action. Unknown tokens become extension
// actions.
func ParseAction(token string) (Action, error) {
	if token == "" {
		return Action{}, newError("ParseAction()", KindProtocol, nil,
			"empty action token")
	}

	for kind, t := range actionTokens {
		if t == token {
			return Action{kind: kind}, nil
		}
	}

	return Action{kind: actionExtension, name: token}, nil
}

// IsExtension tells if the action is not a well-known one.
func (a Action) IsExtension() bool {
	return a.kind == actionExtension
}

// String returns the token that identifies the action on the wire.
func (a Action) String() string {
	if a.kind == actionExtension {
		return a.name
	}

	return actionTokens[a.kind]
}

// ActionRegistry is the set of outstanding actions.
type ActionRegistry struct {
	required map[Action]struct{}
}

// NewActionRegistry creates an empty registry.
func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{required: make(map[Action]struct{})}
}

// Require marks the action as outstanding.
func (r *ActionRegistry) Require(a Action) {
	r.required[a] = struct{}{}
}

// IsRequired tells if the action is outstanding.
func (r *ActionRegistry) IsRequired(a Action) bool {
	_, ok := r.required[a]
	return ok
}

// Perform acknowledges the action.
func (r *ActionRegistry) Perform(a Action) {
	delete(r.required, a)
}

// Len returns the number of outstanding actions.
func (r *ActionRegistry) Len() int {
	return len(r.required)
}

// Actions returns the outstanding actions sorted by token.
func (r *ActionRegistry) Actions() []Action {
	actions := make([]Action, 0, len(r.required))
	for a := range r.required {
		actions = append(actions, a)
	}

	sort.Slice(actions, func(i, j int) bool {
		return actions[i].String() < actions[j].String()
	})

	return actions
}

// Reset removes all outstanding actions.
func (r *ActionRegistry) Reset() {
	clear(r.required)
}

// CheckComplete returns an error listing all outstanding actions.
func (r *ActionRegistry) CheckComplete() error {
	if len(r.required) == 0 {
		return nil
	}

	tokens := r.tokens()

	return newError("checkCompletenessRequiredActions()", KindProtocol,
		V{"actions": tokens},
		"unfulfilled required actions: %s", strings.Join(tokens, ", "))
}

func (r *ActionRegistry) tokens() []string {
	actions := r.Actions()

	tokens := make([]string, len(actions))
	for i, a := range actions {
		tokens[i] = a.String()
	}

	return tokens
}
