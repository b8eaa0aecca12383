package routing

import "fmt"

// Role identifies a specialist in the coaching team. The coordinator role
// ("team") is the default channel and never the target of a handoff proposal.
type Role string

const (
	RoleTeam         Role = "team"
	RoleTrainer      Role = "trainer"
	RoleDoctor       Role = "doctor"
	RolePsychologist Role = "psychologist"
	RoleNutritionist Role = "nutritionist"
)

// RoleInfo carries the display attributes the UI renders for a speaker.
type RoleInfo struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

var roleTable = map[Role]RoleInfo{
	RoleTeam:         {Name: "Команда", Avatar: "👥"},
	RoleTrainer:      {Name: "Тренер", Avatar: "💪"},
	RoleDoctor:       {Name: "Врач", Avatar: "🩺"},
	RolePsychologist: {Name: "Психолог", Avatar: "🧠"},
	RoleNutritionist: {Name: "Нутрициолог", Avatar: "🥗"},
}

// ParseRole validates a wire value against the closed role set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleTable[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := roleTable[r]
	return ok
}

func (r Role) Info() RoleInfo {
	return roleTable[r]
}

// Accusative returns the role name in the grammatical case handoff questions
// and notices need ("подключить тренера").
func (r Role) Accusative() string {
	switch r {
	case RoleTrainer:
		return "тренера"
	case RoleDoctor:
		return "врача"
	case RolePsychologist:
		return "психолога"
	case RoleNutritionist:
		return "нутрициолога"
	default:
		return "команду"
	}
}
