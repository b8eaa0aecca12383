package routing

import "coachteam/internal/classifier"

// Mode describes how many specialists answer the current turn.
type Mode string

const (
	ModeSingle  Mode = "single"
	ModeMulti   Mode = "multi"
	ModeHandoff Mode = "handoff"
)

// HandoffMode distinguishes silent channel switches from negotiated ones.
type HandoffMode string

const (
	HandoffSeamless   HandoffMode = "seamless"
	HandoffAskConfirm HandoffMode = "ask_confirm"
)

// HandoffProposal is the pending-negotiation state stored on thread metadata.
// At most one proposal exists per thread at a time.
type HandoffProposal struct {
	To     Role   `json:"to"`
	From   Role   `json:"from"`
	Reason string `json:"reason"`
}

// Decision is the routing verdict for one inbound message.
type Decision struct {
	SelectedRoles           []Role            `json:"selected_roles"`
	Mode                    Mode              `json:"mode"`
	RequireUserConfirmation bool              `json:"require_user_confirmation"`
	Reason                  string            `json:"reason"`
	SafetyFlags             []classifier.Flag `json:"safety_flags,omitempty"`
	HandoffSuggestedTo      *Role             `json:"handoff_suggested_to,omitempty"`
	HandoffMode             HandoffMode       `json:"handoff_mode,omitempty"`
	Confidence              float64           `json:"confidence"`

	// Resolution of a pending proposal; set only by the handoff state machine.
	ExecuteHandoff bool `json:"execute_handoff,omitempty"`
	CancelHandoff  bool `json:"cancel_handoff,omitempty"`

	// Rule names the cascade branch that produced the decision, for logs and
	// metrics.
	Rule string `json:"rule"`
}
