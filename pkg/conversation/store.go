package conversation

import (
	"GoChat/pkg/types"
)

// Store is the append-only transcript of a chat session together with
// every response received from the endpoint.
type Store struct {
	messages  []types.Message
	responses []*types.ChatResponse
}

// New returns an empty store
func New() *Store {
	return &Store{}
}

// Append adds a message to the end of the transcript
func (s *Store) Append(role, content string) {
	s.messages = append(s.messages, types.NewMessage(role, content))
}

// Messages returns a copy of the transcript
func (s *Store) Messages() []types.Message {
	out := make([]types.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Last returns the most recent message
func (s *Store) Last() (types.Message, bool) {
	if len(s.messages) == 0 {
		return types.Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// Len returns the number of messages in the transcript
func (s *Store) Len() int {
	return len(s.messages)
}

// AppendResponse records a response in the history
func (s *Store) AppendResponse(resp *types.ChatResponse) {
	s.responses = append(s.responses, resp)
}

// Responses returns a copy of the response history
func (s *Store) Responses() []*types.ChatResponse {
	out := make([]*types.ChatResponse, len(s.responses))
	copy(out, s.responses)
	return out
}

// LastResponse returns the most recent response
func (s *Store) LastResponse() (*types.ChatResponse, bool) {
	if len(s.responses) == 0 {
		return nil, false
	}
	return s.responses[len(s.responses)-1], true
}

// ResponseCount returns the number of recorded responses
func (s *Store) ResponseCount() int {
	return len(s.responses)
}

// Truncate drops every message after the first n. It exists so a failed
// exchange can discard the message it appended; responses are untouched.
func (s *Store) Truncate(n int) {
	if n < 0 || n >= len(s.messages) {
		return
	}
	clear(s.messages[n:])
	s.messages = s.messages[:n]
}
