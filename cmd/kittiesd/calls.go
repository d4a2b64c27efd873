package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/shell"
	"github.com/AntonStoeckl/kitties-ledger-go/runtime"
)

const (
	callCreate   = "create"
	callBreed    = "breed"
	callTransfer = "transfer"
)

var (
	errUnknownCall     = errors.New("unknown call")
	errMissingArgument = errors.New("missing argument")
)

// callRequest is one line of input. Without signer and root the origin is unsigned.
type callRequest struct {
	Call      string  `json:"call"`
	Signer    *uint64 `json:"signer,omitempty"`
	Root      bool    `json:"root,omitempty"`
	ParentA   *uint32 `json:"parent_a,omitempty"`
	ParentB   *uint32 `json:"parent_b,omitempty"`
	Recipient *uint64 `json:"recipient,omitempty"`
	KittyID   *uint32 `json:"kitty_id,omitempty"`
}

// callResponse is one line of output.
type callResponse struct {
	Line      int     `json:"line"`
	Call      string  `json:"call,omitempty"`
	OK        bool    `json:"ok"`
	EventType string  `json:"event_type,omitempty"`
	KittyID   *uint32 `json:"kitty_id,omitempty"`
	Retries   int     `json:"retry_attempts,omitempty"`
	Error     string  `json:"error,omitempty"`
}

type dispatcher interface {
	Dispatch(ctx context.Context, origin core.Origin, call runtime.Call) (shell.HandlerResult, error)
}

func decodeCall(line []byte) (callRequest, core.Origin, runtime.Call, error) {
	var req callRequest
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(line, &req); err != nil {
		return req, core.None(), nil, err
	}

	origin := core.None()
	switch {
	case req.Root:
		origin = core.Root()
	case req.Signer != nil:
		origin = core.Signed(core.AccountID(*req.Signer))
	}

	switch req.Call {
	case callCreate:
		return req, origin, runtime.CreateCall{}, nil

	case callBreed:
		if req.ParentA == nil || req.ParentB == nil {
			return req, origin, nil, fmt.Errorf("%w: breed needs parent_a and parent_b", errMissingArgument)
		}

		return req, origin, runtime.BreedCall{ParentA: core.KittyID(*req.ParentA), ParentB: core.KittyID(*req.ParentB)}, nil

	case callTransfer:
		if req.Recipient == nil || req.KittyID == nil {
			return req, origin, nil, fmt.Errorf("%w: transfer needs recipient and kitty_id", errMissingArgument)
		}

		return req, origin, runtime.TransferCall{Recipient: core.AccountID(*req.Recipient), KittyID: core.KittyID(*req.KittyID)}, nil

	default:
		return req, origin, nil, fmt.Errorf("%w: %q", errUnknownCall, req.Call)
	}
}

// serveCalls dispatches one call per input line until in is exhausted or ctx is done.
// Failed calls are reported in the output and do not stop the loop.
func serveCalls(ctx context.Context, d dispatcher, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	encoder := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(out)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if err := encoder.Encode(handleLine(ctx, d, lineNo, line)); err != nil {
			return err
		}
	}

	return scanner.Err()
}

func handleLine(ctx context.Context, d dispatcher, lineNo int, line []byte) callResponse {
	req, origin, call, err := decodeCall(line)
	response := callResponse{Line: lineNo, Call: req.Call}

	if err != nil {
		response.Error = err.Error()
		return response
	}

	result, err := d.Dispatch(ctx, origin, call)
	response.Retries = result.RetryAttempts
	if err != nil {
		response.Error = err.Error()
		return response
	}

	response.OK = true
	response.EventType = result.EventType()
	kittyID := uint32(result.KittyID)
	response.KittyID = &kittyID

	return response
}
