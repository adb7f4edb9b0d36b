package detection

import (
	"math/rand"
	"net/url"

	"github.com/falconx-app/FalconX/app/models"
	"github.com/falconx-app/FalconX/app/repository"
)

// Client-facing action instructions.
const (
	ActionNone     = "none"
	ActionSkip     = "skip"
	ActionRedirect = "redirect"
	ActionBlank    = "blank"
	ActionMessage  = "message"
)

// Decision is the instruction returned to the reporting client. Gate
// evaluation is stateless: nothing records that a visitor already received an
// action, so the same visitor may get it again on a later ping.
type Decision struct {
	Action        string `json:"action"`
	URL           string `json:"url,omitempty"`
	CustomMessage string `json:"customMessage,omitempty"`
}

// Policy picks one action from the user's ordered active-action list.
// FirstActive preserves the historical take-the-head behavior; ranked or
// multi-action strategies slot in here without touching the contract.
type Policy func(actions []models.CloneAction) *models.CloneAction

// FirstActive returns the oldest active action, or nil.
func FirstActive(actions []models.CloneAction) *models.CloneAction {
	if len(actions) == 0 {
		return nil
	}
	return &actions[0]
}

// Selector decides whether a configured countermeasure fires for a ping.
type Selector struct {
	actions repository.CloneActionRepository
	policy  Policy
	randInt func(n int) int
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithPolicy overrides the action selection policy.
func WithPolicy(p Policy) SelectorOption {
	return func(s *Selector) { s.policy = p }
}

// WithRand injects the percentage-gate RNG for tests.
func WithRand(randInt func(n int) int) SelectorOption {
	return func(s *Selector) { s.randInt = randInt }
}

// NewSelector creates an action selector.
func NewSelector(actions repository.CloneActionRepository, opts ...SelectorOption) *Selector {
	s := &Selector{
		actions: actions,
		policy:  FirstActive,
		randInt: rand.Intn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select fetches the user's global actions and runs the percentage and
// trigger gates against the reported URL and referrer.
func (s *Selector) Select(userID, pageURL, referrer string) (Decision, error) {
	list, err := s.actions.ListActiveGlobal(userID)
	if err != nil {
		return Decision{Action: ActionNone}, err
	}

	action := s.policy(list)
	if action == nil {
		return Decision{Action: ActionNone}, nil
	}

	// Percentage gate: a draw in [0,100) below the configured percentage
	// fires. 100 always fires, 0 never does.
	if s.randInt(100) >= action.RedirectPercentage {
		return Decision{Action: ActionSkip}, nil
	}

	if !triggerGatePasses(action.TriggerParams, pageURL, referrer) {
		return Decision{Action: ActionSkip}, nil
	}

	switch action.ActionType {
	case models.ActionTypeRedirect:
		return Decision{Action: ActionRedirect, URL: action.RedirectURL}, nil
	case models.ActionTypeBlankPage:
		return Decision{Action: ActionBlank}, nil
	case models.ActionTypeCustomMessage:
		return Decision{Action: ActionMessage, CustomMessage: action.CustomMessage}, nil
	default:
		return Decision{Action: ActionNone}, nil
	}
}

// triggerGatePasses checks the marketing-parameter gate. With no enabled
// parameters the gate always passes; otherwise at least one enabled parameter
// must be present in the page URL or referrer query string.
func triggerGatePasses(params models.TriggerParams, pageURL, referrer string) bool {
	enabled := params.Enabled()
	if len(enabled) == 0 {
		return true
	}
	return queryHasAnyParam(pageURL, enabled) || queryHasAnyParam(referrer, enabled)
}

func queryHasAnyParam(rawURL string, names []string) bool {
	if rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	q := u.Query()
	for _, name := range names {
		if q.Has(name) {
			return true
		}
	}
	return false
}
