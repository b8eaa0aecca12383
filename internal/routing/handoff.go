package routing

import "coachteam/internal/classifier"

// StateMachine interprets a user message against a pending handoff proposal.
type StateMachine struct {
	classifier classifier.Classifier
}

func NewStateMachine(c classifier.Classifier) *StateMachine {
	return &StateMachine{classifier: c}
}

// Resolve returns the decision for a pending proposal, or nil when the
// message neither confirms nor rejects it (the proposal then stays pending
// and the message routes normally). Confirmation is checked first, so a
// message that somehow matches both lexicons executes the handoff.
func (m *StateMachine) Resolve(pending *HandoffProposal, channel Role, text string) *Decision {
	if pending == nil {
		return nil
	}
	if m.classifier.Confirmation(text) {
		to := pending.To
		return &Decision{
			SelectedRoles:      []Role{to},
			Mode:               ModeSingle,
			Reason:             "Пользователь подтвердил подключение специалиста",
			HandoffSuggestedTo: &to,
			Confidence:         1.0,
			ExecuteHandoff:     true,
			Rule:               "handoff_confirm",
		}
	}
	if m.classifier.Rejection(text) {
		return &Decision{
			SelectedRoles: []Role{channel},
			Mode:          ModeSingle,
			Reason:        "Пользователь отказался от подключения, остаёмся в текущем канале",
			Confidence:    1.0,
			CancelHandoff: true,
			Rule:          "handoff_reject",
		}
	}
	return nil
}
