package jmap

import (
	"encoding/json"
	"fmt"

	"github.com/mailbridge/fastmail-mcp/internal/errs"
)

// CallID identifies one method call within a batch. IDs are allocated by the
// builder; callers never construct them.
type CallID string

// Invocation is one method call on the wire: [name, arguments, callId].
type Invocation struct {
	Name   string
	Args   map[string]any
	CallID CallID
}

// MarshalJSON encodes the invocation as the protocol's 3-element array.
func (inv Invocation) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{inv.Name, inv.Args, inv.CallID})
}

// ResultReference is a placeholder argument resolved server-side against an
// earlier call's result.
type ResultReference struct {
	ResultOf CallID `json:"resultOf"`
	Name     string `json:"name"`
	Path     string `json:"path"`
}

// Batch builds an ordered sequence of method calls. The builder tracks call
// identifiers internally so callers chain calls without index arithmetic.
type Batch struct {
	using []string
	calls []Invocation
	names map[CallID]string
}

// NewBatch returns an empty batch declaring the given capability URNs.
func NewBatch(using ...string) *Batch {
	return &Batch{
		using: using,
		names: make(map[CallID]string),
	}
}

// Call appends a method call and returns its id for back-referencing.
func (b *Batch) Call(name string, args map[string]any) CallID {
	id := CallID(fmt.Sprintf("c%d", len(b.calls)))
	b.calls = append(b.calls, Invocation{Name: name, Args: args, CallID: id})
	b.names[id] = name
	return id
}

// Ref returns a back-reference to the result of an earlier call in this
// batch. The target must have been produced by a prior Call on the same
// builder; referencing an unknown id is a programmer error.
func (b *Batch) Ref(id CallID, path string) *ResultReference {
	name, ok := b.names[id]
	if !ok {
		panic(fmt.Sprintf("jmap: back-reference to unknown call id %q", id))
	}
	return &ResultReference{ResultOf: id, Name: name, Path: path}
}

// Len returns the number of calls in the batch.
func (b *Batch) Len() int {
	return len(b.calls)
}

// MarshalJSON encodes the batch as the protocol request envelope.
func (b *Batch) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"using":       b.using,
		"methodCalls": b.calls,
	})
}

// BatchResponse holds the ordered method results of an executed batch.
// response[i] corresponds to call[i]; correlation is positional.
type BatchResponse struct {
	requested []string
	responses []responseInvocation
}

type responseInvocation struct {
	name   string
	result json.RawMessage
	callID string
}

type errorPayload struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Len returns the number of method results.
func (r *BatchResponse) Len() int {
	return len(r.responses)
}

// Result returns the raw result of call i. An error-typed payload becomes a
// ProtocolError carrying the backend's error type and the name of the
// originating method call.
func (r *BatchResponse) Result(i int) (json.RawMessage, error) {
	if i < 0 || i >= len(r.responses) {
		return nil, fmt.Errorf("batch has %d responses, requested index %d", len(r.responses), i)
	}
	resp := r.responses[i]
	if resp.name == "error" {
		var payload errorPayload
		if err := json.Unmarshal(resp.result, &payload); err != nil {
			return nil, fmt.Errorf("malformed error payload for call %d: %w", i, err)
		}
		method := "call"
		if i < len(r.requested) {
			method = r.requested[i]
		}
		return nil, &errs.ProtocolError{
			Method:      method,
			Type:        payload.Type,
			Description: payload.Description,
		}
	}
	return resp.result, nil
}

// DecodeResult unmarshals the result of call i into v, converting
// error-typed payloads as Result does.
func (r *BatchResponse) DecodeResult(i int, v any) error {
	raw, err := r.Result(i)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode result of call %d: %w", i, err)
	}
	return nil
}

func parseBatchResponse(body []byte, requested []string) (*BatchResponse, error) {
	var envelope struct {
		MethodResponses [][]json.RawMessage `json:"methodResponses"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode batch response: %w", err)
	}

	resp := &BatchResponse{requested: requested}
	for i, tuple := range envelope.MethodResponses {
		if len(tuple) != 3 {
			return nil, fmt.Errorf("response %d has %d elements, want 3", i, len(tuple))
		}
		var inv responseInvocation
		if err := json.Unmarshal(tuple[0], &inv.name); err != nil {
			return nil, fmt.Errorf("decode response %d name: %w", i, err)
		}
		if err := json.Unmarshal(tuple[2], &inv.callID); err != nil {
			return nil, fmt.Errorf("decode response %d call id: %w", i, err)
		}
		inv.result = tuple[1]
		resp.responses = append(resp.responses, inv)
	}
	return resp, nil
}
