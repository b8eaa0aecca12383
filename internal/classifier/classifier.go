package classifier

// Flag marks a safety concern detected in a user message.
type Flag string

const (
	FlagMedicalEmergency Flag = "medical_emergency"
	FlagInjuryRisk       Flag = "injury_risk"
	FlagMedicalAdvice    Flag = "medical_advice"
)

// Domain is an intent axis a message can be scored against.
type Domain string

const (
	DomainTraining   Domain = "training"
	DomainNutrition  Domain = "nutrition"
	DomainPsychology Domain = "psychology"
)

// Classifier scores a message against the routing axes. Implementations must
// be deterministic and side-effect free; the routing engine may call any
// method several times per turn.
type Classifier interface {
	// SafetyFlags returns every safety flag whose lexicon matches the text.
	SafetyFlags(text string) []Flag
	// Intent returns a saturating confidence in [0,1] that the text belongs
	// to the domain. Three distinct lexicon hits already yield 1.0.
	Intent(text string, domain Domain) float64
	// DisorderSigns reports eating-disorder-adjacent wording.
	DisorderSigns(text string) bool
	// Confirmation reports whether the text accepts a proposed handoff.
	Confirmation(text string) bool
	// Rejection reports whether the text declines a proposed handoff.
	Rejection(text string) bool
	// SymptomMarker reports a raw pain/injury/symptom mention.
	SymptomMarker(text string) bool
}
