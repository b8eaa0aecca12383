package classifier

import (
	"encoding/json"
	"fmt"
	"os"
)

// Lexicons holds the keyword sets the lexical classifier matches against.
// All matching is case-insensitive substring (or word-prefix for the
// confirmation/rejection sets), so entries are usually word stems.
type Lexicons struct {
	Emergency     []string `json:"emergency"`
	InjuryRisk    []string `json:"injury_risk"`
	MedicalAdvice []string `json:"medical_advice"`
	Symptoms      []string `json:"symptoms"`

	Training   []string `json:"training"`
	Nutrition  []string `json:"nutrition"`
	Psychology []string `json:"psychology"`

	DisorderSigns []string `json:"disorder_signs"`

	Affirmative  []string `json:"affirmative"`
	Negative     []string `json:"negative"`
	ConnectStems []string `json:"connect_stems"`
}

// DefaultLexicons returns the built-in Russian (plus a few English) keyword
// sets tuned for the coaching domain.
func DefaultLexicons() Lexicons {
	return Lexicons{
		Emergency: []string{
			"болит грудь", "боль в груди", "давит в груди",
			"кружится голова", "головокружени", "теряю сознание",
			"потерял сознание", "потеряла сознание", "обморок",
			"трудно дышать", "не могу дышать", "задыхаюсь",
			"резкая боль", "сильная боль", "онемел",
		},
		InjuryRisk: []string{
			"травм", "подвернул", "вывих", "растяжение связок",
			"хруст", "щелкает", "опухл", "отек", "ушиб", "надрыв",
		},
		MedicalAdvice: []string{
			"таблетк", "лекарств", "диагноз", "давление",
			"температур", "аллерги", "анализ", "симптом", "болезн",
		},
		Symptoms: []string{
			"боль", "болит", "больно", "травм", "симптом",
			"тошнит", "тошнота", "кровь",
		},
		Training: []string{
			"тренировк", "тренажер", "упражнен", "подход",
			"повторен", "техник", "жим", "присед", "становая",
			"гантел", "штанг", "кардио", "разминк", "растяжк",
			"отжиман", "подтягиван", "выносливост", "мышц", "зал",
		},
		Nutrition: []string{
			"питани", "калори", "белк", "углевод", "жиры",
			"диет", "рацион", "еда", "еды", "завтрак", "обед",
			"ужин", "перекус", "похуде", "бжу", "витамин",
			"переедани", "голод",
		},
		Psychology: []string{
			"мотивац", "стресс", "тревог", "лень", "выгоран",
			"настроени", "депресс", "апати", "прокрастинац",
			"не хочу", "усталост", "эмоци", "страшно", "страх",
			"ненавижу себя", "уверенност", "срыв",
		},
		DisorderSigns: []string{
			"переедани", "компульсивн", "ненавижу себя",
			"ненавижу свое тело", "ненавижу своё тело",
			"вызвать рвоту", "вызываю рвоту", "слабительн",
			"голодовк", "голодани", "чувство вины из-за еды",
			"наказываю себя едой",
		},
		Affirmative: []string{
			"да", "давай", "давайте", "ага", "угу", "ок", "окей",
			"хорошо", "конечно", "можно", "согласен", "согласна",
			"yes", "ok", "sure",
		},
		Negative: []string{
			"нет", "не надо", "не нужно", "не стоит", "не сейчас",
			"потом", "позже", "no",
		},
		ConnectStems: []string{
			"подключ", "переключ", "соедини", "connect",
		},
	}
}

// LoadLexicons reads a JSON lexicon override from path. An empty path yields
// the defaults. Sets absent from the file keep their default values.
func LoadLexicons(path string) (Lexicons, error) {
	lex := DefaultLexicons()
	if path == "" {
		return lex, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicons{}, fmt.Errorf("read lexicons: %w", err)
	}
	if err := json.Unmarshal(data, &lex); err != nil {
		return Lexicons{}, fmt.Errorf("parse lexicons: %w", err)
	}
	return lex, nil
}
