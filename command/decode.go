package command

import (
	"encoding/json"
	"fmt"
)

// UnknownOpError is returned by Decode for an unrecognized op tag.
type UnknownOpError struct {
	Op string
}

func (e *UnknownOpError) Error() string {
	if e.Op == "" {
		return "command has no op"
	}
	return fmt.Sprintf("unknown command op %q", e.Op)
}

type envelope struct {
	Op string `json:"op"`
}

// Decode builds a command from a JSON envelope carrying an "op" tag next to
// the command's own fields.
func Decode(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode command: %w", err)
	}

	cmd, err := newCommand(env.Op)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, cmd); err != nil {
		return nil, fmt.Errorf("failed to decode %s command: %w", env.Op, err)
	}
	return cmd, nil
}

func newCommand(op string) (Command, error) {
	switch op {
	case OpAddAccount:
		return &AddAccount{}, nil
	case OpAddCategory:
		return &AddCategory{}, nil
	case OpSetReadyToAssign:
		return &SetReadyToAssign{}, nil
	case OpAssign:
		return &Assign{}, nil
	case OpSpend:
		return &Spend{}, nil
	case OpTransfer:
		return &Transfer{}, nil
	case OpRollForward:
		return &RollForward{}, nil
	default:
		return nil, &UnknownOpError{Op: op}
	}
}
