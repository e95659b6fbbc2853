// Package client implements the one-shot wire client: connect, encode a
// single request, read the matching response, print it, and exit. It is a
// thin consumer of internal/protocol — no retries, no connection reuse.
package client

import (
	"fmt"
	"io"
	"net"
	"time"

	"goredis/internal/bufpool"
	"goredis/internal/protocol"
)

// Value is a decoded response, holding exactly one of its fields
// depending on Tag.
type Value struct {
	Tag  protocol.DataType
	Str  []byte
	Int  uint64
	Code protocol.ResponseCode
	Err  []byte
}

// String renders a Value the way the CLI prints it to stdout.
func (v Value) String() string {
	switch v.Tag {
	case protocol.TypeNil:
		return "(nil)"
	case protocol.TypeStr:
		return string(v.Str)
	case protocol.TypeInt:
		return fmt.Sprintf("%d", v.Int)
	case protocol.TypeErr:
		return fmt.Sprintf("(error) code=%d %s", v.Code, v.Err)
	default:
		return fmt.Sprintf("(unknown tag %d)", v.Tag)
	}
}

// Client holds one TCP connection to a goredis server and a scratch
// buffer pool for encoding requests and decoding responses.
type Client struct {
	conn net.Conn
	pool *bufpool.BytePool
}

// Dial connects to addr ("host:port") with the given timeout.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn, pool: bufpool.New()}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Do encodes argv as a Request (command name plus arguments), sends it,
// and returns the single decoded response value.
func (c *Client) Do(argv []string) (Value, error) {
	req := c.pool.Get(protocol.BufLen)
	defer c.pool.Put(req)

	w := protocol.NewWriter(req)
	w.PushInt(uint64(len(argv)))
	for _, a := range argv {
		w.PushStr([]byte(a))
	}
	w.Finish()

	if _, err := c.conn.Write(req[:w.Written()]); err != nil {
		return Value{}, fmt.Errorf("write request: %w", err)
	}

	return c.readResponse()
}

// readResponse blocks until one full framed message arrives, then decodes
// its first (and, for GET/SET/DEL, only) typed value.
func (c *Client) readResponse() (Value, error) {
	buf := c.pool.Get(protocol.BufLen)
	defer c.pool.Put(buf)

	n := 0
	for {
		_, body, err := protocol.ParseMessage(buf[:n])
		if err == nil {
			return decode(body)
		}
		if !protocol.IsIncomplete(err) {
			return Value{}, fmt.Errorf("malformed response: %w", err)
		}

		if n == len(buf) {
			return Value{}, fmt.Errorf("response exceeds buffer capacity")
		}

		read, readErr := c.conn.Read(buf[n:])
		if read > 0 {
			n += read
		}
		if readErr != nil {
			if readErr == io.EOF {
				return Value{}, fmt.Errorf("connection closed before a full response arrived")
			}
			return Value{}, fmt.Errorf("read response: %w", readErr)
		}
	}
}

func decode(body []byte) (Value, error) {
	r := protocol.NewReader(body)

	tag, err := r.ReadDataType()
	if err != nil {
		return Value{}, fmt.Errorf("decode response: %w", err)
	}

	switch tag {
	case protocol.TypeNil:
		return Value{Tag: tag}, nil
	case protocol.TypeInt:
		rr := protocol.NewReader(body)
		v, err := rr.ReadInt()
		if err != nil {
			return Value{}, fmt.Errorf("decode int response: %w", err)
		}
		return Value{Tag: tag, Int: v}, nil
	case protocol.TypeStr:
		rr := protocol.NewReader(body)
		s, err := rr.ReadStr()
		if err != nil {
			return Value{}, fmt.Errorf("decode str response: %w", err)
		}
		return Value{Tag: tag, Str: s}, nil
	case protocol.TypeErr:
		rr := protocol.NewReader(body)
		code, msg, err := rr.ReadErr()
		if err != nil {
			return Value{}, fmt.Errorf("decode err response: %w", err)
		}
		return Value{Tag: tag, Code: code, Err: msg}, nil
	default:
		return Value{}, fmt.Errorf("unexpected response tag %v", tag)
	}
}
