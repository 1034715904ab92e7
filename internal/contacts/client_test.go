package contacts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailbridge/fastmail-mcp/internal/errs"
	"github.com/mailbridge/fastmail-mcp/internal/jmap"
)

type recordedCall struct {
	Name   string
	Args   map[string]any
	CallID string
}

// fakeBackend scripts the session document and batch endpoint. When
// withContacts is false the session omits the contacts capability.
type fakeBackend struct {
	mu           sync.Mutex
	server       *httptest.Server
	withContacts bool
	batches      [][]recordedCall
	respond      map[string]any
}

func newFakeBackend(t *testing.T, withContacts bool) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{
		withContacts: withContacts,
		respond:      make(map[string]any),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/jmap/session", func(w http.ResponseWriter, r *http.Request) {
		capabilities := map[string]any{jmap.CapCore: map[string]any{}, jmap.CapMail: map[string]any{}}
		if fb.withContacts {
			capabilities[jmap.CapContacts] = map[string]any{}
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"accountId":    "acc1",
			"apiUrl":       fb.server.URL + "/api",
			"capabilities": capabilities,
		}))
	})
	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		var envelope struct {
			MethodCalls [][]json.RawMessage `json:"methodCalls"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&envelope))

		var calls []recordedCall
		var responses []json.RawMessage
		failed := make(map[string]bool)
		for _, tuple := range envelope.MethodCalls {
			var call recordedCall
			require.NoError(t, json.Unmarshal(tuple[0], &call.Name))
			require.NoError(t, json.Unmarshal(tuple[1], &call.Args))
			require.NoError(t, json.Unmarshal(tuple[2], &call.CallID))
			calls = append(calls, call)

			name, result := "error", any(map[string]string{"type": "unknownMethod"})
			if scripted, ok := fb.respond[call.Name]; ok {
				name, result = call.Name, scripted
			}
			// A back-reference to a failed call fails too, as the real
			// backend reports it.
			if ref, ok := call.Args["#ids"].(map[string]any); ok {
				if resultOf, _ := ref["resultOf"].(string); failed[resultOf] {
					name, result = "error", any(map[string]string{"type": "invalidResultReference"})
				}
			}
			if name == "error" {
				failed[call.CallID] = true
			}
			tupleJSON, err := json.Marshal([]any{name, result, call.CallID})
			require.NoError(t, err)
			responses = append(responses, tupleJSON)
		}

		fb.mu.Lock()
		fb.batches = append(fb.batches, calls)
		fb.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"methodResponses": responses,
		}))
	})

	fb.server = httptest.NewServer(mux)
	t.Cleanup(fb.server.Close)
	return fb
}

func (fb *fakeBackend) client() *Client {
	return NewClient(jmap.NewClient("test-token", fb.server.URL))
}

func (fb *fakeBackend) batchCount() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.batches)
}

func (fb *fakeBackend) callsNamed(name string) []recordedCall {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	var out []recordedCall
	for _, batch := range fb.batches {
		for _, call := range batch {
			if call.Name == name {
				out = append(out, call)
			}
		}
	}
	return out
}

func contactFixture() map[string]any {
	return map[string]any{"list": []map[string]any{
		{
			"id": "ct1", "firstName": "Alice", "lastName": "Doe",
			"emails": []map[string]string{{"type": "personal", "value": "alice@example.com"}},
		},
		{
			"id": "ct2", "company": "Initech",
			"emails": []map[string]string{{"type": "work", "value": "billing@initech.example"}},
		},
	}}
}

func TestCapabilityGateBlocksBeforeAnyCall(t *testing.T) {
	fb := newFakeBackend(t, false)
	client := fb.client()
	ctx := context.Background()

	for name, op := range map[string]func() error{
		"list":   func() error { _, err := client.List(ctx, 10); return err },
		"search": func() error { _, err := client.Search(ctx, "alice", 10); return err },
		"get":    func() error { _, err := client.Get(ctx, "ct1"); return err },
	} {
		t.Run(name, func(t *testing.T) {
			err := op()
			var capErr *errs.CapabilityError
			require.ErrorAs(t, err, &capErr)
			assert.Equal(t, jmap.CapContacts, capErr.Capability)
		})
	}
	assert.Equal(t, 0, fb.batchCount(), "capability gate must not reach the batch endpoint")
}

func TestListChainsQueryThenFetch(t *testing.T) {
	fb := newFakeBackend(t, true)
	fb.respond["Contact/query"] = map[string]any{"ids": []string{"ct1", "ct2"}}
	fb.respond["Contact/get"] = contactFixture()
	client := fb.client()

	list, err := client.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alice Doe", list[0].DisplayName())
	assert.Equal(t, "Initech", list[1].DisplayName())

	queries := fb.callsNamed("Contact/query")
	require.Len(t, queries, 1)
	gets := fb.callsNamed("Contact/get")
	require.Len(t, gets, 1)
	ref := gets[0].Args["#ids"].(map[string]any)
	assert.Equal(t, string(queries[0].CallID), ref["resultOf"])
	assert.Equal(t, "Contact/query", ref["name"])
	assert.Equal(t, "/ids", ref["path"])
}

func TestListFallsBackToAddressBooksOnce(t *testing.T) {
	fb := newFakeBackend(t, true)
	// Contact/query stays unscripted and answers with an error-typed result;
	// the alternate shape succeeds.
	fb.respond["AddressBook/get"] = map[string]any{"list": []map[string]any{{"id": "ab1"}}}
	fb.respond["Contact/get"] = contactFixture()
	client := fb.client()

	list, err := client.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.Equal(t, 2, fb.batchCount(), "exactly one fallback batch after the failed chain")
	require.Len(t, fb.callsNamed("AddressBook/get"), 1)
	// The fallback fetches everything: nil ids, no back-reference.
	fallbackGet := fb.callsNamed("Contact/get")[1]
	assert.Nil(t, fallbackGet.Args["ids"])
	assert.NotContains(t, fallbackGet.Args, "#ids")
}

func TestListSurfacesFallbackFailure(t *testing.T) {
	fb := newFakeBackend(t, true)
	client := fb.client()

	_, err := client.List(context.Background(), 10)
	require.Error(t, err)
	var protoErr *errs.ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, "Contact/get", protoErr.Method)
	assert.Equal(t, 2, fb.batchCount(), "one chain attempt plus one fallback, never more")
}

func TestSearchPassesTextFilter(t *testing.T) {
	fb := newFakeBackend(t, true)
	fb.respond["Contact/query"] = map[string]any{"ids": []string{"ct1"}}
	fb.respond["Contact/get"] = map[string]any{"list": []map[string]any{
		{"id": "ct1", "firstName": "Alice"},
	}}
	client := fb.client()

	list, err := client.Search(context.Background(), "alice", 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	queries := fb.callsNamed("Contact/query")
	require.Len(t, queries, 1)
	assert.Equal(t, map[string]any{"text": "alice"}, queries[0].Args["filter"])
}

func TestSearchFallbackFiltersLocally(t *testing.T) {
	fb := newFakeBackend(t, true)
	fb.respond["AddressBook/get"] = map[string]any{"list": []map[string]any{{"id": "ab1"}}}
	fb.respond["Contact/get"] = contactFixture()
	client := fb.client()

	list, err := client.Search(context.Background(), "initech", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ct2", list[0].ID)
}

func TestGetNotFound(t *testing.T) {
	fb := newFakeBackend(t, true)
	fb.respond["Contact/get"] = map[string]any{"list": []any{}}
	client := fb.client()

	_, err := client.Get(context.Background(), "ct404")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
	assert.EqualError(t, err, fmt.Sprintf("%s %q not found", "contact", "ct404"))
}
