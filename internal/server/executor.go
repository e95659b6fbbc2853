package server

import (
	"goredis/internal/hashtable"
	"goredis/internal/protocol"
	"goredis/internal/stats"
)

var (
	msgInvalidKey      = []byte("invalid key")
	msgInvalidKeyValue = []byte("invalid key/value")
	msgInternalError   = []byte("internal error")
)

func unknownCommandMsg(name []byte) []byte {
	msg := make([]byte, 0, len("invalid command ")+len(name))
	msg = append(msg, "invalid command "...)
	msg = append(msg, name...)
	return msg
}

// validKey rejects the empty key; spec.md leaves key-shape validation to
// the executor.
func validKey(key []byte) bool {
	return len(key) > 0 && len(key) <= protocol.MaxMsgLen
}

// dispatch runs argv against the keyspace and pushes exactly the response
// spec.md §4.7 describes through w, bumping the matching stats counter.
// argv[0] is the command name; it is compared case-sensitively, matching
// the wire examples in spec.md §6.
func dispatch(table *hashtable.Table, st *stats.Stats, w *protocol.Writer, argv [][]byte) {
	st.IncrTotalOps()

	if len(argv) == 0 {
		w.PushErr(protocol.CodeUnknown, msgInternalError)
		return
	}

	switch string(argv[0]) {
	case "get":
		st.IncrGetOps()
		execGet(table, w, argv)
	case "set":
		st.IncrSetOps()
		execSet(table, st, w, argv)
	case "del":
		st.IncrDelOps()
		execDel(table, w, argv)
	default:
		w.PushErr(protocol.CodeUnknown, unknownCommandMsg(argv[0]))
	}
}

func execGet(table *hashtable.Table, w *protocol.Writer, argv [][]byte) {
	if len(argv) != 2 || !validKey(argv[1]) {
		w.PushErr(protocol.CodeUnknown, msgInvalidKey)
		return
	}

	if v, ok := table.Get(string(argv[1])); ok {
		w.PushStr(v)
		return
	}
	w.PushNil()
}

func execSet(table *hashtable.Table, st *stats.Stats, w *protocol.Writer, argv [][]byte) {
	if len(argv) != 3 || !validKey(argv[1]) {
		w.PushErr(protocol.CodeUnknown, msgInvalidKeyValue)
		return
	}

	// The argument slice aliases the connection's read buffer, which gets
	// compacted and overwritten on the next read; the keyspace needs its
	// own copy.
	value := make([]byte, len(argv[2]))
	copy(value, argv[2])

	before := table.ResizeCount()
	table.Set(string(argv[1]), value)
	if table.ResizeCount() != before {
		st.IncrResizeCount()
	}
	w.PushNil()
}

func execDel(table *hashtable.Table, w *protocol.Writer, argv [][]byte) {
	if len(argv) != 2 || !validKey(argv[1]) {
		w.PushErr(protocol.CodeUnknown, msgInvalidKey)
		return
	}

	if table.Del(string(argv[1])) {
		w.PushInt(1)
		return
	}
	w.PushInt(0)
}
