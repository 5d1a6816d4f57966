package commands

import "errors"

// ResetAck is sent to the peer after the conversation has been cleared.
const ResetAck = "\r\n[Conversation Reset]\r\n\r\n> "

// ResetHandler wipes the conversation back to the System message.
type ResetHandler struct {
	Token string
}

func (h *ResetHandler) Name() string        { return h.Token }
func (h *ResetHandler) Description() string { return "Start a new conversation" }

func (h *ResetHandler) Execute(ctx *Context) *Result {
	if ctx == nil || ctx.Session == nil {
		return &Result{Error: errors.New("no session to reset")}
	}
	ctx.Session.Reset()
	return &Result{Reply: ResetAck}
}
