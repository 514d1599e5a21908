package studio

import (
	"context"

	"github.com/kayz/promptcraft/internal/ai"
)

// Streamer produces chat completion fragments for one turn.
type Streamer interface {
	StreamChat(ctx context.Context, systemPrompt string, history []ai.Message, message string) <-chan string
}

// ChatSession runs a turn-based conversation against a system prompt,
// keeping the transcript as the turns accumulate. Like Editor it belongs to
// a single interactive session: read the transcript only after the current
// turn's stream has been drained.
type ChatSession struct {
	client       Streamer
	systemPrompt string
	transcript   []ai.Message
}

// NewChatSession starts an empty conversation using systemPrompt.
func NewChatSession(client Streamer, systemPrompt string) *ChatSession {
	return &ChatSession{client: client, systemPrompt: systemPrompt}
}

// SystemPrompt returns the prompt under test.
func (s *ChatSession) SystemPrompt() string {
	return s.systemPrompt
}

// Transcript returns the accumulated conversation.
func (s *ChatSession) Transcript() []ai.Message {
	return s.transcript
}

// Reset clears the transcript, keeping the system prompt.
func (s *ChatSession) Reset() {
	s.transcript = nil
}

// SendTurn sends one user message and returns the fragment stream of the
// reply. Fragments are forwarded to the caller and simultaneously appended
// to the growing model message in the transcript. The stream is finite and
// not restartable; a transport failure mid-stream surfaces as a final
// human-readable fragment from the underlying client, never as an error.
func (s *ChatSession) SendTurn(ctx context.Context, text string) <-chan string {
	history := append([]ai.Message(nil), s.transcript...)

	s.transcript = append(s.transcript,
		ai.Message{Role: ai.RoleUser, Text: text},
		ai.Message{Role: ai.RoleModel, Text: ""},
	)
	reply := &s.transcript[len(s.transcript)-1]

	out := make(chan string)
	go func() {
		defer close(out)
		for frag := range s.client.StreamChat(ctx, s.systemPrompt, history, text) {
			reply.Text += frag
			select {
			case out <- frag:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
