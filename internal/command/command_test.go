package command

import (
	"bytes"
	"testing"

	"goredis/internal/protocol"
)

func buildRequest(args ...string) []byte {
	var buf [protocol.BufLen]byte
	w := protocol.NewWriter(buf[:])
	w.PushInt(uint64(len(args)))
	for _, a := range args {
		w.PushStr([]byte(a))
	}
	w.Finish()

	_, body, err := protocol.ParseMessage(buf[:w.Written()])
	if err != nil {
		panic(err)
	}
	return body
}

func TestParseArgv(t *testing.T) {
	body := buildRequest("set", "foo", "bar")

	argv, err := ParseArgv(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(argv) != 3 {
		t.Fatalf("got %d args, want 3", len(argv))
	}
	for i, want := range []string{"set", "foo", "bar"} {
		if !bytes.Equal(argv[i], []byte(want)) {
			t.Errorf("argv[%d] = %q, want %q", i, argv[i], want)
		}
	}
}

func TestParseArgvEmptyBody(t *testing.T) {
	_, err := ParseArgv(nil)
	if err == nil {
		t.Fatalf("expected an error parsing an empty body")
	}
}

func TestParseArgvZeroCount(t *testing.T) {
	body := buildRequest()
	argv, err := ParseArgv(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(argv) != 0 {
		t.Errorf("got %d args, want 0", len(argv))
	}
}
