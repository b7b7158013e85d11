package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AnswerKind tags the shape held by an Answer.
type AnswerKind int

const (
	AnswerNone AnswerKind = iota
	AnswerSingle
	AnswerMultiple
)

func (k AnswerKind) String() string {
	switch k {
	case AnswerSingle:
		return "single"
	case AnswerMultiple:
		return "multiple"
	default:
		return "none"
	}
}

// Answer is either nothing, one string, or a set of strings. It is used both
// for what a user answered and for a question's correct answer.
// On the wire it is null, "value" or ["a", "b"].
type Answer struct {
	kind   AnswerKind
	value  string
	values []string
}

// NoAnswer returns the unanswered value.
func NoAnswer() Answer { return Answer{} }

// SingleAnswer wraps one string as-is.
func SingleAnswer(v string) Answer {
	return Answer{kind: AnswerSingle, value: v}
}

// MultiAnswer builds a set answer. Values are trimmed, blanks dropped and
// duplicates removed; first-seen order is kept.
func MultiAnswer(vals ...string) Answer {
	seen := make(map[string]struct{}, len(vals))
	set := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		set = append(set, v)
	}
	return Answer{kind: AnswerMultiple, values: set}
}

func (a Answer) Kind() AnswerKind { return a.kind }

// Value returns the single string; empty for other kinds.
func (a Answer) Value() string { return a.value }

// Values returns a copy of the set members; nil for other kinds.
func (a Answer) Values() []string {
	if a.kind != AnswerMultiple {
		return nil
	}
	out := make([]string, len(a.values))
	copy(out, a.values)
	return out
}

// IsBlank reports whether the answer carries nothing a grader could use:
// none, a whitespace-only string or an empty set.
func (a Answer) IsBlank() bool {
	switch a.kind {
	case AnswerSingle:
		return strings.TrimSpace(a.value) == ""
	case AnswerMultiple:
		return len(a.values) == 0
	default:
		return true
	}
}

// Normalized collapses blank answers to NoAnswer.
func (a Answer) Normalized() Answer {
	if a.IsBlank() {
		return NoAnswer()
	}
	return a
}

// String renders the answer for people: values joined by ", ".
func (a Answer) String() string {
	switch a.kind {
	case AnswerSingle:
		return a.value
	case AnswerMultiple:
		return strings.Join(a.values, ", ")
	default:
		return ""
	}
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case AnswerSingle:
		return json.Marshal(a.value)
	case AnswerMultiple:
		if a.values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.values)
	default:
		return []byte("null"), nil
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = NoAnswer()
		return nil
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		*a = SingleAnswer(v)
	case bool:
		// true/false banks are often authored with bare booleans.
		*a = SingleAnswer(TrueFalseOptions[boolIndex(v)])
	case float64:
		*a = SingleAnswer(strconv.FormatFloat(v, 'f', -1, 64))
	case []interface{}:
		vals := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("answer set members must be strings, got %T", item)
			}
			vals = append(vals, s)
		}
		*a = MultiAnswer(vals...)
	default:
		return fmt.Errorf("unsupported answer shape %T", raw)
	}
	return nil
}

func (a Answer) MarshalYAML() (interface{}, error) {
	switch a.kind {
	case AnswerSingle:
		return a.value, nil
	case AnswerMultiple:
		return a.values, nil
	default:
		return nil, nil
	}
}

func (a *Answer) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*a = NoAnswer()
			return nil
		}
		*a = SingleAnswer(node.Value)
		return nil
	case yaml.SequenceNode:
		var vals []string
		if err := node.Decode(&vals); err != nil {
			return fmt.Errorf("decode answer set: %w", err)
		}
		*a = MultiAnswer(vals...)
		return nil
	default:
		return fmt.Errorf("unsupported answer node at line %d", node.Line)
	}
}

func boolIndex(v bool) int {
	if v {
		return 0
	}
	return 1
}
