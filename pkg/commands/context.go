package commands

// Session is the part of a bridge session a command may act on.
type Session interface {
	Reset()
}

// Context contains all the context needed for command execution
type Context struct {
	Session Session
	Line    string // the candidate prompt as typed, trimmed
}

// NewContext creates a new command context
func NewContext(sess Session, line string) *Context {
	return &Context{
		Session: sess,
		Line:    line,
	}
}
