// Package status carries transient user-visible messages (the "toast") from the core to
// whichever shell is running.
package status

type Kind string

const (
	Info    Kind = "info"
	Success Kind = "success"
	Error   Kind = "error"
)

// Func receives a message. Shells decide how long to show it.
type Func func(msg string, kind Kind)

// Discard drops every message.
func Discard(string, Kind) {}

// Or returns f, or Discard when f is nil.
func Or(f Func) Func {
	if f == nil {
		return Discard
	}
	return f
}

// Message is a recorded status message.
type Message struct {
	Text string `json:"text"`
	Kind Kind   `json:"kind"`
}

// Recorder collects messages in order; used by the CLI and by tests.
type Recorder struct {
	Messages []Message
}

func (r *Recorder) Func() Func {
	return func(msg string, kind Kind) {
		r.Messages = append(r.Messages, Message{Text: msg, Kind: kind})
	}
}

func (r *Recorder) Last() (Message, bool) {
	if r == nil || len(r.Messages) == 0 {
		return Message{}, false
	}
	return r.Messages[len(r.Messages)-1], true
}
