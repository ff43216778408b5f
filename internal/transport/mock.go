package transport

import (
	"context"
	"sync"

	"github.com/LemmyAI/arenasync/internal/protocol"
)

// MockTransport is a mock implementation for testing. States queued with
// QueueState are handed out one per FetchState call; when the queue is
// empty FetchState reports no change.
type MockTransport struct {
	mu      sync.Mutex
	inputs  []protocol.SubmitInputRequest
	states  []*protocol.StateResponse
	polls   []*uint64
	joins   []protocol.JoinRequest
	leaves  []string
	join    *protocol.JoinResponse
	pollErr error
	sendErr error
}

// NewMockTransport creates a new mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// SubmitInput records the request, or fails with the error set by FailInputs.
func (t *MockTransport) SubmitInput(_ context.Context, req protocol.SubmitInputRequest) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputs = append(t.inputs, req)
	return t.sendErr
}

// FetchState returns the next queued state.
func (t *MockTransport) FetchState(_ context.Context, _ string, since *uint64) (*protocol.StateResponse, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if since != nil {
		v := *since
		since = &v
	}
	t.polls = append(t.polls, since)
	if t.pollErr != nil {
		return nil, false, t.pollErr
	}
	if len(t.states) == 0 {
		return nil, false, nil
	}
	st := t.states[0]
	t.states = t.states[1:]
	return st, true, nil
}

// Join records the request and returns the scripted response.
func (t *MockTransport) Join(_ context.Context, sessionID string, req protocol.JoinRequest) (*protocol.JoinResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.joins = append(t.joins, req)
	if t.join != nil {
		resp := *t.join
		return &resp, nil
	}
	return &protocol.JoinResponse{SessionID: sessionID, PlayerID: req.PlayerID, Version: 1, Speed: 4}, nil
}

// Leave records the player id.
func (t *MockTransport) Leave(_ context.Context, _ string, playerID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.leaves = append(t.leaves, playerID)
	return nil
}

// --- Test helpers ---

// QueueState schedules a state for a later FetchState.
func (t *MockTransport) QueueState(st *protocol.StateResponse) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states = append(t.states, st)
}

// SetJoinResponse scripts the Join result.
func (t *MockTransport) SetJoinResponse(resp protocol.JoinResponse) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.join = &resp
}

// FailPolls makes every FetchState fail with err until cleared with nil.
func (t *MockTransport) FailPolls(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pollErr = err
}

// FailInputs makes every SubmitInput fail with err until cleared with nil.
func (t *MockTransport) FailInputs(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sendErr = err
}

// SentInputs returns all submitted inputs.
func (t *MockTransport) SentInputs() []protocol.SubmitInputRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]protocol.SubmitInputRequest{}, t.inputs...)
}

// Polls returns the since argument of every FetchState call.
func (t *MockTransport) Polls() []*uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*uint64{}, t.polls...)
}

// Leaves returns the players that left.
func (t *MockTransport) Leaves() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string{}, t.leaves...)
}

// Clear clears all recorded calls.
func (t *MockTransport) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputs = t.inputs[:0]
	t.polls = t.polls[:0]
	t.joins = t.joins[:0]
	t.leaves = t.leaves[:0]
}
