package routing

import (
	"fmt"

	"coachteam/internal/classifier"
)

// Rule thresholds. Intent scores saturate at 1.0 after three lexicon hits,
// so 0.4 means "at least two distinct hits" and 0.3 "at least one".
const (
	trainingThreshold   = 0.4
	nutritionThreshold  = 0.4
	psychologyThreshold = 0.4

	// coordinatorAxisThreshold routes single-hit questions off the
	// coordinator channel to the matching specialist.
	coordinatorAxisThreshold = 0.3

	// safetyTrainerAssistThreshold pulls the trainer in next to the doctor
	// when a coordinator-channel safety message also talks training.
	safetyTrainerAssistThreshold = 0.3

	// psychologistTrainingHandoffThreshold is deliberately low: the
	// psychologist hands training questions over eagerly.
	psychologistTrainingHandoffThreshold = 0.2
)

// Engine applies the ordered rule cascade to one inbound message.
type Engine struct {
	classifier classifier.Classifier
	machine    *StateMachine
}

func NewEngine(c classifier.Classifier) *Engine {
	return &Engine{classifier: c, machine: NewStateMachine(c)}
}

// Input is everything the cascade looks at for one turn.
type Input struct {
	Text    string
	Channel Role
	Pending *HandoffProposal
}

// Route evaluates the cascade top to bottom; the first matching rule wins.
func (e *Engine) Route(in Input) Decision {
	// Rule 0: a pending proposal is resolved before anything else.
	if d := e.machine.Resolve(in.Pending, in.Channel, in.Text); d != nil {
		return *d
	}

	flags := e.classifier.SafetyFlags(in.Text)
	training := e.classifier.Intent(in.Text, classifier.DomainTraining)
	nutrition := e.classifier.Intent(in.Text, classifier.DomainNutrition)
	psychology := e.classifier.Intent(in.Text, classifier.DomainPsychology)

	// Rule A: safety first. Fires on an explicit safety flag, or on a raw
	// symptom mention that no intent axis claimed.
	allZero := training == 0 && nutrition == 0 && psychology == 0
	if (len(flags) > 0 || allZero) && e.classifier.SymptomMarker(in.Text) {
		if in.Channel != RoleTeam && in.Channel != RoleDoctor {
			return askConfirm(in.Channel, RoleDoctor, flags, 0.9, "safety",
				"Похоже на медицинский вопрос, лучше уточнить у врача")
		}
		d := Decision{
			SelectedRoles: []Role{RoleDoctor},
			Mode:          ModeSingle,
			Reason:        "Сообщение про самочувствие, отвечает врач",
			SafetyFlags:   flags,
			Confidence:    0.9,
			Rule:          "safety",
		}
		if in.Channel == RoleTeam && training > safetyTrainerAssistThreshold {
			d.SelectedRoles = append(d.SelectedRoles, RoleTrainer)
			d.Mode = ModeMulti
			d.Reason = "Самочувствие в контексте тренировок, отвечают врач и тренер"
		}
		return d
	}

	if in.Channel == RoleTeam {
		return e.routeCoordinator(in.Text, training, nutrition, psychology, flags)
	}

	// Rule B: clear training question.
	if training > trainingThreshold {
		if in.Channel != RoleTrainer {
			return askConfirm(in.Channel, RoleTrainer, flags, training, "training",
				"Это вопрос про тренировки, им занимается тренер")
		}
		return respond(RoleTrainer, training, "training", flags,
			"Вопрос про тренировки")
	}

	// Rule C: nutrition question; eating-disorder wording escalates to the
	// psychologist instead.
	if nutrition > nutritionThreshold {
		if in.Channel == RoleNutritionist {
			if e.classifier.DisorderSigns(in.Text) {
				return askConfirm(RoleNutritionist, RolePsychologist, flags, nutrition, "nutrition_disorder",
					"Тема выходит за рамки питания, стоит поговорить с психологом")
			}
			return respond(RoleNutritionist, nutrition, "nutrition", flags,
				"Вопрос про питание")
		}
		return askConfirm(in.Channel, RoleNutritionist, flags, nutrition, "nutrition",
			"Это вопрос про питание, им занимается нутрициолог")
	}

	// Rule D: psychological load; training undertones on the psychologist
	// channel go back to the trainer.
	if psychology > psychologyThreshold {
		if in.Channel == RolePsychologist {
			if training > psychologistTrainingHandoffThreshold {
				return askConfirm(RolePsychologist, RoleTrainer, flags, psychology, "psychology_training",
					"Здесь есть тренировочная часть, её лучше разобрать с тренером")
			}
			return respond(RolePsychologist, psychology, "psychology", flags,
				"Вопрос про состояние и мотивацию")
		}
		return askConfirm(in.Channel, RolePsychologist, flags, psychology, "psychology",
			"Похоже на вопрос про состояние и мотивацию, им занимается психолог")
	}

	// Default: the current channel keeps the conversation.
	return respond(in.Channel, 0.6, "default", flags,
		"Продолжает текущий специалист")
}

// routeCoordinator handles the shared "team" channel: combined axes answer in
// multi mode, a single strong axis is a seamless handoff, anything else stays
// with the coordinator.
func (e *Engine) routeCoordinator(text string, training, nutrition, psychology float64, flags []classifier.Flag) Decision {
	if nutrition > nutritionThreshold && e.classifier.DisorderSigns(text) {
		return Decision{
			SelectedRoles: []Role{RoleNutritionist, RolePsychologist},
			Mode:          ModeMulti,
			Reason:        "Питание и отношение к еде, отвечают нутрициолог и психолог",
			SafetyFlags:   flags,
			Confidence:    nutrition,
			Rule:          "nutrition_disorder",
		}
	}
	if training > coordinatorAxisThreshold && nutrition > coordinatorAxisThreshold {
		return Decision{
			SelectedRoles: []Role{RoleTrainer, RoleNutritionist},
			Mode:          ModeMulti,
			Reason:        "Тренировки и питание, отвечают тренер и нутрициолог",
			SafetyFlags:   flags,
			Confidence:    max(training, nutrition),
			Rule:          "training_nutrition",
		}
	}
	if training > coordinatorAxisThreshold && psychology > coordinatorAxisThreshold {
		return Decision{
			SelectedRoles: []Role{RoleTrainer, RolePsychologist},
			Mode:          ModeMulti,
			Reason:        "Тренировки и мотивация, отвечают тренер и психолог",
			SafetyFlags:   flags,
			Confidence:    max(training, psychology),
			Rule:          "training_psychology",
		}
	}

	bestRole, bestScore, rule := RoleTrainer, training, "training"
	if nutrition > bestScore {
		bestRole, bestScore, rule = RoleNutritionist, nutrition, "nutrition"
	}
	if psychology > bestScore {
		bestRole, bestScore, rule = RolePsychologist, psychology, "psychology"
	}
	if bestScore > coordinatorAxisThreshold {
		to := bestRole
		return Decision{
			SelectedRoles:      []Role{to},
			Mode:               ModeSingle,
			Reason:             fmt.Sprintf("Передаю вопрос: подключается %s", to.Info().Name),
			SafetyFlags:        flags,
			HandoffSuggestedTo: &to,
			HandoffMode:        HandoffSeamless,
			Confidence:         bestScore,
			Rule:               rule,
		}
	}

	return respond(RoleTeam, 0.5, "coordinator", flags,
		"Общий вопрос, отвечает координатор")
}

func respond(role Role, confidence float64, rule string, flags []classifier.Flag, reason string) Decision {
	return Decision{
		SelectedRoles: []Role{role},
		Mode:          ModeSingle,
		Reason:        reason,
		SafetyFlags:   flags,
		Confidence:    confidence,
		Rule:          rule,
	}
}

func askConfirm(from, to Role, flags []classifier.Flag, confidence float64, rule, reason string) Decision {
	return Decision{
		SelectedRoles:           []Role{from},
		Mode:                    ModeHandoff,
		RequireUserConfirmation: true,
		Reason:                  reason,
		SafetyFlags:             flags,
		HandoffSuggestedTo:      &to,
		HandoffMode:             HandoffAskConfirm,
		Confidence:              confidence,
		Rule:                    rule,
	}
}
