package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RiskAnswer holds either a chosen option index (radio and select questions)
// or a set of selected option labels (checkbox questions). On the wire it is
// a bare number or a bare array.
type RiskAnswer struct {
	Choice     *int
	Selections []string
}

func ChoiceAnswer(index int) RiskAnswer {
	return RiskAnswer{Choice: &index}
}

func SelectionAnswer(options ...string) RiskAnswer {
	if options == nil {
		options = []string{}
	}
	return RiskAnswer{Selections: options}
}

func (a RiskAnswer) Answered() bool {
	return a.Choice != nil || len(a.Selections) > 0
}

func (a RiskAnswer) Clone() RiskAnswer {
	c := RiskAnswer{}
	if a.Choice != nil {
		choice := *a.Choice
		c.Choice = &choice
	}
	if a.Selections != nil {
		c.Selections = append([]string{}, a.Selections...)
	}
	return c
}

func (a RiskAnswer) MarshalJSON() ([]byte, error) {
	switch {
	case a.Choice != nil:
		return json.Marshal(*a.Choice)
	case a.Selections != nil:
		return json.Marshal(a.Selections)
	default:
		return []byte("null"), nil
	}
}

func (a *RiskAnswer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*a = RiskAnswer{}
		return nil
	case len(data) > 0 && data[0] == '[':
		var selections []string
		if err := json.Unmarshal(data, &selections); err != nil {
			return err
		}
		*a = SelectionAnswer(selections...)
		return nil
	default:
		var choice int
		if err := json.Unmarshal(data, &choice); err != nil {
			return fmt.Errorf("risk answer must be an option index or a list of options: %w", err)
		}
		*a = ChoiceAnswer(choice)
		return nil
	}
}
