package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"action-router/internal/model"
)

var errEmptyActionID = errors.New("action_id must not be empty")

// wireInput mirrors model.ActionInput with pointer fields so absent and null
// members can be told apart from empty strings.
type wireInput struct {
	ActionID *string      `json:"action_id"`
	Payload  *wirePayload `json:"payload"`
}

type wirePayload struct {
	Input *string `json:"input"`
}

// DecodeActionInput parses an action request body. Any syntax error, type
// mismatch or missing required field yields a KindInvalidInput error and no value.
func DecodeActionInput(data []byte) (model.ActionInput, error) {
	var w wireInput
	if err := json.Unmarshal(data, &w); err != nil {
		return model.ActionInput{}, InvalidInput(err)
	}
	if w.ActionID == nil {
		return model.ActionInput{}, InvalidInput(missingField("action_id"))
	}
	if *w.ActionID == "" {
		return model.ActionInput{}, InvalidInput(errEmptyActionID)
	}
	if w.Payload == nil {
		return model.ActionInput{}, InvalidInput(missingField("payload"))
	}
	if w.Payload.Input == nil {
		return model.ActionInput{}, InvalidInput(missingField("payload.input"))
	}

	return model.ActionInput{
		ActionID: *w.ActionID,
		Payload:  model.ActionPayload{Input: *w.Payload.Input},
	}, nil
}

func missingField(name string) error {
	return fmt.Errorf("missing field %q", name)
}
