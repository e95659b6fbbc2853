package client

import (
	"net"
	"testing"

	"goredis/internal/bufpool"
	"goredis/internal/protocol"
)

// pipeClient builds a Client around one end of an in-memory net.Pipe,
// returning the other end for a fake server to use.
func pipeClient() (*Client, net.Conn) {
	a, b := net.Pipe()
	return &Client{conn: a, pool: bufpool.New()}, b
}

func encodeResponse(t *testing.T, push func(w *protocol.Writer)) []byte {
	t.Helper()
	var buf [protocol.BufLen]byte
	w := protocol.NewWriter(buf[:])
	push(w)
	w.Finish()
	out := make([]byte, w.Written())
	copy(out, buf[:w.Written()])
	return out
}

func TestDoDecodesStrResponse(t *testing.T) {
	c, srv := pipeClient()
	defer c.Close()

	go func() {
		req := make([]byte, protocol.BufLen)
		n, _ := srv.Read(req)
		_ = n
		srv.Write(encodeResponse(t, func(w *protocol.Writer) { w.PushStr([]byte("bar")) }))
	}()

	v, err := c.Do([]string{"get", "foo"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if v.Tag != protocol.TypeStr || string(v.Str) != "bar" {
		t.Fatalf("got %+v, want Str bar", v)
	}
}

func TestDoDecodesNilResponse(t *testing.T) {
	c, srv := pipeClient()
	defer c.Close()

	go func() {
		req := make([]byte, protocol.BufLen)
		srv.Read(req)
		srv.Write(encodeResponse(t, func(w *protocol.Writer) { w.PushNil() }))
	}()

	v, err := c.Do([]string{"get", "missing"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if v.Tag != protocol.TypeNil {
		t.Fatalf("got %+v, want Nil", v)
	}
	if v.String() != "(nil)" {
		t.Errorf("String() = %q, want (nil)", v.String())
	}
}

func TestDoDecodesErrResponseAcrossPartialReads(t *testing.T) {
	c, srv := pipeClient()
	defer c.Close()

	go func() {
		req := make([]byte, protocol.BufLen)
		srv.Read(req)
		resp := encodeResponse(t, func(w *protocol.Writer) {
			w.PushErr(protocol.CodeUnknown, []byte("invalid command nope"))
		})
		// Dribble the response out in small pieces.
		for len(resp) > 0 {
			n := 3
			if n > len(resp) {
				n = len(resp)
			}
			srv.Write(resp[:n])
			resp = resp[n:]
		}
	}()

	v, err := c.Do([]string{"nope"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if v.Tag != protocol.TypeErr || string(v.Err) != "invalid command nope" {
		t.Fatalf("got %+v, want Err invalid command nope", v)
	}
}
