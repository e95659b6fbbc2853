// Package command interprets a parsed request body as an argv vector.
package command

import (
	"fmt"

	"goredis/internal/protocol"
)

// ErrBody reports that the request body could not be parsed as a Request.
type ErrBody struct {
	cause error
}

func (e *ErrBody) Error() string {
	return fmt.Sprintf("malformed request body: %v", e.cause)
}

func (e *ErrBody) Unwrap() error { return e.cause }

// ParseArgv reads a request body (Int count, then count Str values) and
// returns the argument vector. Value-shape and argument-count constraints
// beyond "readable as Str" are left to each executor, per spec.md §4.2.
func ParseArgv(body []byte) ([][]byte, error) {
	r := protocol.NewReader(body)

	count, err := r.ReadInt()
	if err != nil {
		return nil, &ErrBody{cause: err}
	}

	argv := make([][]byte, 0, count)
	for i := uint64(0); i < count; i++ {
		s, err := r.ReadStr()
		if err != nil {
			return nil, &ErrBody{cause: err}
		}
		argv = append(argv, s)
	}

	return argv, nil
}
