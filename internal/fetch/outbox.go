package fetch

import (
	"context"

	"github.com/tecnoter/ttsh/internal/output"
)

// DefaultOutboxSize is the number of lines an outbox buffers before senders
// block.
const DefaultOutboxSize = 64

// Outbox queues lines produced after a dispatch call has returned. The host
// owning the session drains it.
type Outbox struct {
	ch chan output.Line
}

// NewOutbox creates an outbox buffering size lines.
func NewOutbox(size int) *Outbox {
	if size <= 0 {
		size = DefaultOutboxSize
	}
	return &Outbox{ch: make(chan output.Line, size)}
}

// Send queues line, giving up when ctx is done. It reports whether the line
// was queued.
func (o *Outbox) Send(ctx context.Context, line output.Line) bool {
	select {
	case o.ch <- line:
		return true
	case <-ctx.Done():
		return false
	}
}

// Lines is the channel the host reads queued lines from.
func (o *Outbox) Lines() <-chan output.Line {
	return o.ch
}

// Drain returns every line queued so far without blocking.
func (o *Outbox) Drain() []output.Line {
	var lines []output.Line
	for {
		select {
		case l := <-o.ch:
			lines = append(lines, l)
		default:
			return lines
		}
	}
}
