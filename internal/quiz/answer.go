package quiz

import (
	"encoding/json"
	"fmt"
)

// AnswerKind discriminates the shapes a submission can take. The wire formats
// this engine inherits ship answers as string-or-array; inside the engine every
// answer carries its kind so the checker never guesses from a raw value.
type AnswerKind string

const (
	AnswerNone   AnswerKind = ""       // no answer recorded
	AnswerChoice AnswerKind = "choice" // selected option id
	AnswerText   AnswerKind = "text"   // free text
	AnswerPairs  AnswerKind = "pairs"  // matching pairs, left in submission order
)

type Answer struct {
	kind   AnswerKind
	option string
	text   string
	pairs  []string
}

func ChoiceAnswer(optionID string) Answer { return Answer{kind: AnswerChoice, option: optionID} }
func TextAnswer(s string) Answer          { return Answer{kind: AnswerText, text: s} }
func PairAnswer(pairs []string) Answer    { return Answer{kind: AnswerPairs, pairs: pairs} }

func (a Answer) Kind() AnswerKind { return a.kind }

func (a Answer) IsEmpty() bool {
	switch a.kind {
	case AnswerChoice:
		return a.option == ""
	case AnswerText:
		return a.text == ""
	case AnswerPairs:
		return len(a.pairs) == 0
	default:
		return true
	}
}

func (a Answer) OptionID() (string, bool) { return a.option, a.kind == AnswerChoice }
func (a Answer) Text() (string, bool)     { return a.text, a.kind == AnswerText }
func (a Answer) Pairs() ([]string, bool)  { return a.pairs, a.kind == AnswerPairs }

// ParseAnswer converts a decoded JSON value (string or array of strings) into
// the Answer variant appropriate for the question's type. A nil value yields
// the empty Answer; a shape that cannot serve the question type is an error.
func ParseAnswer(q Question, v interface{}) (Answer, error) {
	if v == nil {
		return Answer{}, nil
	}
	switch q.Type {
	case TypeSingleChoice, TypeTrueFalse:
		s, ok := v.(string)
		if !ok {
			return Answer{}, fmt.Errorf("question %s: answer must be an option id", q.ID)
		}
		return ChoiceAnswer(s), nil
	case TypeShortAnswer:
		s, ok := v.(string)
		if !ok {
			return Answer{}, fmt.Errorf("question %s: answer must be text", q.ID)
		}
		return TextAnswer(s), nil
	case TypeMatching:
		arr, ok := toStringSlice(v)
		if !ok {
			return Answer{}, fmt.Errorf("question %s: answer must be a list of pairs", q.ID)
		}
		return PairAnswer(arr), nil
	default:
		return Answer{}, fmt.Errorf("question %s: unknown type %q", q.ID, q.Type)
	}
}

func toStringSlice(v interface{}) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

type answerJSON struct {
	Option string   `json:"option,omitempty"`
	Text   string   `json:"text,omitempty"`
	Pairs  []string `json:"pairs,omitempty"`
}

// MarshalJSON keeps the variant explicit in storage so a text answer that looks
// like an option id cannot change kind on round-trip.
func (a Answer) MarshalJSON() ([]byte, error) {
	if a.kind == AnswerNone {
		return []byte("null"), nil
	}
	return json.Marshal(answerJSON{Option: a.option, Text: a.text, Pairs: a.pairs})
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Answer{}
		return nil
	}
	var aux answerJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch {
	case aux.Option != "":
		*a = ChoiceAnswer(aux.Option)
	case aux.Text != "":
		*a = TextAnswer(aux.Text)
	case aux.Pairs != nil:
		*a = PairAnswer(aux.Pairs)
	default:
		*a = Answer{}
	}
	return nil
}
