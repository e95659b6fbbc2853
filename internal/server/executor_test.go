package server

import (
	"bytes"
	"testing"

	"goredis/internal/hashtable"
	"goredis/internal/protocol"
	"goredis/internal/stats"
)

func dispatchFor(t *testing.T, table *hashtable.Table, argv ...string) (protocol.DataType, []byte) {
	t.Helper()

	var raw [][]byte
	for _, a := range argv {
		raw = append(raw, []byte(a))
	}

	var buf [protocol.BufLen]byte
	w := protocol.NewWriter(buf[:])
	dispatch(table, stats.New(), w, raw)
	w.Finish()

	_, body, err := protocol.ParseMessage(buf[:w.Written()])
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}

	r := protocol.NewReader(body)
	tag, err := r.ReadDataType()
	if err != nil {
		t.Fatalf("ReadDataType: %v", err)
	}

	switch tag {
	case protocol.TypeNil:
		return tag, nil
	case protocol.TypeInt:
		rr := protocol.NewReader(body)
		v, err := rr.ReadInt()
		if err != nil {
			t.Fatalf("ReadInt: %v", err)
		}
		return tag, []byte{byte(v)}
	case protocol.TypeStr:
		rr := protocol.NewReader(body)
		s, err := rr.ReadStr()
		if err != nil {
			t.Fatalf("ReadStr: %v", err)
		}
		return tag, s
	case protocol.TypeErr:
		rr := protocol.NewReader(body)
		_, msg, err := rr.ReadErr()
		if err != nil {
			t.Fatalf("ReadErr: %v", err)
		}
		return tag, msg
	default:
		t.Fatalf("unexpected tag %v", tag)
		return tag, nil
	}
}

func TestSetThenGet(t *testing.T) {
	table := hashtable.New(16)

	tag, _ := dispatchFor(t, table, "set", "foo", "bar")
	if tag != protocol.TypeNil {
		t.Fatalf("SET response tag = %v, want Nil", tag)
	}

	tag, val := dispatchFor(t, table, "get", "foo")
	if tag != protocol.TypeStr || !bytes.Equal(val, []byte("bar")) {
		t.Fatalf("GET response = (%v, %q), want (Str, bar)", tag, val)
	}
}

func TestGetAbsent(t *testing.T) {
	table := hashtable.New(16)

	tag, _ := dispatchFor(t, table, "get", "missing")
	if tag != protocol.TypeNil {
		t.Fatalf("GET on missing key = %v, want Nil", tag)
	}
}

func TestDelSemantics(t *testing.T) {
	table := hashtable.New(16)

	dispatchFor(t, table, "set", "k", "v")

	tag, val := dispatchFor(t, table, "del", "k")
	if tag != protocol.TypeInt || val[0] != 1 {
		t.Fatalf("first DEL = (%v, %v), want (Int, 1)", tag, val)
	}

	tag, val = dispatchFor(t, table, "del", "k")
	if tag != protocol.TypeInt || val[0] != 0 {
		t.Fatalf("second DEL = (%v, %v), want (Int, 0)", tag, val)
	}
}

func TestUnknownCommand(t *testing.T) {
	table := hashtable.New(16)

	tag, msg := dispatchFor(t, table, "frobnicate", "x")
	if tag != protocol.TypeErr {
		t.Fatalf("unknown command response tag = %v, want Err", tag)
	}
	if !bytes.Contains(msg, []byte("frobnicate")) {
		t.Errorf("error message %q should name the offending command", msg)
	}
}

func TestEmptyArgvIsUnknownCommand(t *testing.T) {
	table := hashtable.New(16)

	var buf [protocol.BufLen]byte
	w := protocol.NewWriter(buf[:])
	dispatch(table, stats.New(), w, nil)
	w.Finish()

	_, body, err := protocol.ParseMessage(buf[:w.Written()])
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	r := protocol.NewReader(body)
	tag, err := r.ReadDataType()
	if err != nil || tag != protocol.TypeErr {
		t.Fatalf("empty argv response tag = %v, err = %v, want Err", tag, err)
	}
}
