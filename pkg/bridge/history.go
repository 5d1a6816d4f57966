package bridge

import "retrochat/pkg/ai"

// History is the conversation sent to the model. Element 0 is always the
// System message it was created with.
type History struct {
	system   ai.Message
	messages []ai.Message
}

// NewHistory returns a history holding only the System message.
func NewHistory(systemPrompt string) *History {
	h := &History{system: ai.Message{Role: ai.RoleSystem, Content: systemPrompt}}
	h.Reset()
	return h
}

// Reset drops every message but the System message.
func (h *History) Reset() {
	h.messages = []ai.Message{h.system}
}

// Append adds a message at the end.
func (h *History) Append(role, content string) {
	h.messages = append(h.messages, ai.Message{Role: role, Content: content})
}

// Truncate drops every message after the first n. The System message is
// always kept.
func (h *History) Truncate(n int) {
	if n < 1 {
		n = 1
	}
	if n < len(h.messages) {
		h.messages = h.messages[:n]
	}
}

// Len returns the number of messages, System message included.
func (h *History) Len() int {
	return len(h.messages)
}

// Last returns the most recent message.
func (h *History) Last() ai.Message {
	return h.messages[len(h.messages)-1]
}

// Messages returns a copy of the whole history.
func (h *History) Messages() []ai.Message {
	out := make([]ai.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Window returns the System message followed by the last n messages.
// n <= 0 returns everything.
func (h *History) Window(n int) []ai.Message {
	rest := h.messages[1:]
	if n <= 0 || n >= len(rest) {
		return h.Messages()
	}
	out := make([]ai.Message, 0, n+1)
	out = append(out, h.system)
	return append(out, rest[len(rest)-n:]...)
}
