package server

import (
	"goredis/internal/connbuf"
	"goredis/internal/protocol"
)

// state is the per-connection automaton: ReadRequest drains the socket and
// parses as many pipelined requests as the write buffer has room for;
// SendResponse flushes the accumulated responses back out.
type state int

const (
	stateReadRequest state = iota
	stateSendResponse
)

// Connection bundles one accepted fd with its buffers and automaton state.
// The event loop is the sole owner of every Connection; nothing else
// touches its fields.
type Connection struct {
	fd    int
	state state

	readBuf  *connbuf.Buffer
	writeBuf *connbuf.Buffer

	// scratch holds one response while it is being serialized, before it
	// is copied into writeBuf. protocol.Writer needs a full BufLen buffer
	// to reserve its length header, which writeBuf.Writable() cannot
	// always offer once earlier responses have partially filled it.
	scratch [protocol.BufLen]byte
}

func newConnection(fd int) *Connection {
	return &Connection{
		fd:       fd,
		state:    stateReadRequest,
		readBuf:  connbuf.New(),
		writeBuf: connbuf.New(),
	}
}

// pollEvents reports the poll(2) interest for the connection's current
// state, per spec.md §4.5: ReadRequest waits for readability, SendResponse
// for writability. Both also watch for POLLERR.
func (c *Connection) pollEvents() int16 {
	switch c.state {
	case stateSendResponse:
		return pollOut | pollErr
	default:
		return pollIn | pollErr
	}
}
