// Package server implements the nonblocking, single-threaded event loop:
// socket setup, the poll(2) multiplexer, the per-connection state machine,
// and the GET/SET/DEL command executors that sit behind it.
package server

import (
	"fmt"
	"log"
	"net"

	"golang.org/x/sys/unix"

	"goredis/internal/command"
	"goredis/internal/config"
	"goredis/internal/hashtable"
	"goredis/internal/protocol"
	"goredis/internal/stats"
)

const (
	pollIn  = int16(unix.POLLIN)
	pollOut = int16(unix.POLLOUT)
	pollErr = int16(unix.POLLERR)

	// initialBuckets is the keyspace's starting bucket count, a power of
	// two as hashtable.Table requires.
	initialBuckets = 16
)

// Server owns the listening socket, the connection set, and the single
// keyspace; every mutation of any of them happens on the goroutine running
// Run, so none of it needs a lock.
type Server struct {
	cfg *config.Config

	listenFd int
	conns    map[int]*Connection

	table *hashtable.Table
	stats *stats.Stats
}

// New builds a Server around cfg. The listening socket is not created
// until Listen is called.
func New(cfg *config.Config) *Server {
	return &Server{
		cfg:      cfg,
		listenFd: -1,
		conns:    make(map[int]*Connection),
		table:    hashtable.New(initialBuckets),
		stats:    stats.New(),
	}
}

// Stats exposes the running counters for introspection.
func (s *Server) Stats() stats.Stats {
	return s.stats.Snapshot()
}

// Listen creates, binds, and starts listening on the configured address,
// per spec.md §6's OS call list: socket, SO_REUSEADDR, bind, listen,
// O_NONBLOCK.
func (s *Server) Listen() error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return fmt.Errorf("socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return fmt.Errorf("setsockopt(SO_REUSEADDR): %w", err)
	}

	addr, err := sockaddr(s.cfg.Host, s.cfg.Port)
	if err != nil {
		unix.Close(fd)
		return err
	}

	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return fmt.Errorf("bind: %w", err)
	}

	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return fmt.Errorf("listen: %w", err)
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return fmt.Errorf("set listening socket nonblocking: %w", err)
	}

	s.listenFd = fd
	log.Printf("goredis server listening on %s:%d", s.cfg.Host, s.cfg.Port)
	return nil
}

func sockaddr(host string, port int) (unix.Sockaddr, error) {
	ip := net.ParseIP(host)
	if ip == nil {
		resolved, err := net.LookupIP(host)
		if err != nil || len(resolved) == 0 {
			return nil, fmt.Errorf("cannot resolve host %q", host)
		}
		ip = resolved[0]
	}

	v4 := ip.To4()
	if v4 == nil {
		return nil, fmt.Errorf("host %q is not an IPv4 address", host)
	}

	sa := &unix.SockaddrInet4{Port: port}
	copy(sa.Addr[:], v4)
	return sa, nil
}

// Close releases the listening socket and every open connection.
func (s *Server) Close() {
	for fd, c := range s.conns {
		unix.Close(c.fd)
		delete(s.conns, fd)
	}
	if s.listenFd >= 0 {
		unix.Close(s.listenFd)
		s.listenFd = -1
	}
}

// Run drives the event loop until stop reports true (checked once per
// poll timeout, so shutdown latency is bounded by cfg.PollTimeout). Run
// owns the keyspace, the connection set, and every fd; nothing else may
// touch them concurrently.
func (s *Server) Run(stop func() bool) error {
	if s.listenFd < 0 {
		return fmt.Errorf("server: Listen must succeed before Run")
	}

	timeoutMs := int(s.cfg.PollTimeout.Milliseconds())
	if timeoutMs <= 0 {
		timeoutMs = 1000
	}

	for !stop() {
		fds := make([]int, 0, len(s.conns))
		pfds := make([]unix.PollFd, 1, len(s.conns)+1)
		pfds[0] = unix.PollFd{Fd: int32(s.listenFd), Events: pollIn}

		for fd, c := range s.conns {
			pfds = append(pfds, unix.PollFd{Fd: int32(fd), Events: c.pollEvents()})
			fds = append(fds, fd)
		}

		n, err := unix.Poll(pfds, timeoutMs)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("poll: %w", err)
		}
		if n == 0 {
			continue
		}

		if pfds[0].Revents != 0 {
			s.acceptOne()
		}

		for i, fd := range fds {
			revents := pfds[i+1].Revents
			if revents == 0 {
				continue
			}

			c := s.conns[fd]
			if c == nil {
				continue
			}

			if s.service(c, revents) {
				unix.Close(c.fd)
				delete(s.conns, fd)
			}
		}
	}

	return nil
}

// acceptOne accepts at most one pending connection per tick; poll re-fires
// on the next iteration if more are waiting, so no accept loop is needed.
// A connection accepted while cfg.MaxClients are already open is closed
// immediately.
func (s *Server) acceptOne() {
	fd, _, err := unix.Accept4(s.listenFd, unix.SOCK_NONBLOCK)
	if err != nil {
		if err != unix.EAGAIN {
			log.Printf("accept: %v", err)
		}
		return
	}

	if len(s.conns) >= s.cfg.MaxClients {
		unix.Close(fd)
		return
	}

	s.conns[fd] = newConnection(fd)
	s.stats.IncrConnections()
}

// service dispatches one connection on its current state and reports
// whether the connection should be torn down.
func (s *Server) service(c *Connection, revents int16) (shouldDelete bool) {
	switch c.state {
	case stateReadRequest:
		return s.handleReadable(c, revents)
	default:
		return s.handleWritable(c, revents)
	}
}

// handleReadable implements the ReadRequest entry action from spec.md
// §4.5: compact, one nonblocking read, then drain as many complete
// requests as the write buffer has room for.
func (s *Server) handleReadable(c *Connection, revents int16) (shouldDelete bool) {
	if revents&pollErr != 0 {
		return true
	}

	c.readBuf.Compact()

	// If compaction could not free any room, the buffer already holds one
	// or more fully-parsed requests whose responses are still waiting on
	// write-buffer room (the backpressure case in spec.md §5); skip the
	// read and go straight to draining them instead of reading into an
	// empty slice, which would otherwise look indistinguishable from EOF.
	if room := c.readBuf.Writable(); len(room) > 0 {
		n, err := unix.Read(c.fd, room)
		switch {
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
			return false
		case err != nil:
			return true
		case n == 0:
			return true
		}

		c.readBuf.AdvanceWrite(n)
		s.stats.AddBytesRead(uint64(n))
	}

	for {
		handled, fatal := s.tryOneRequest(c)
		if fatal {
			return true
		}
		if !handled {
			break
		}
	}

	if !c.writeBuf.IsEmpty() {
		c.state = stateSendResponse
		return s.handleWritable(c, pollOut)
	}
	return false
}

// tryOneRequest parses and executes one pipelined request from c.readBuf,
// per spec.md §4.1/§4.2/§4.7. It reports handled=false when either no
// complete message is buffered yet, or a complete message is parsed but
// its response does not fit the remaining room in c.writeBuf (the
// backpressure case from spec.md §5) — in both cases the read head is
// left untouched so the bytes are reconsidered on the next pass.
func (s *Server) tryOneRequest(c *Connection) (handled bool, fatal bool) {
	consumed, body, err := protocol.ParseMessage(c.readBuf.Readable())
	if protocol.IsIncomplete(err) {
		return false, false
	}
	if err != nil {
		// MessageTooLong or any other framing error is fatal, per
		// spec.md §4.1/§7.
		return false, true
	}

	// A response can be as large as protocol.BufLen (a Str carrying a
	// maximal stored value). Check room for that worst case *before*
	// dispatching: dispatch mutates the keyspace for SET/DEL, and once
	// mutated there is no undoing it if the response turns out not to
	// fit — reparsing the same bytes later would re-run the command
	// against an already-changed keyspace and produce a wrong reply (a
	// second DEL of an already-removed key replies Int 0, not Int 1).
	if len(c.writeBuf.Writable()) < protocol.BufLen {
		return false, false
	}

	w := protocol.NewWriter(c.scratch[:])

	argv, err := command.ParseArgv(body)
	if err != nil {
		w.PushErr(protocol.CodeUnknown, msgInternalError)
	} else {
		dispatch(s.table, s.stats, w, argv)
	}
	w.Finish()

	written := w.Written()
	copy(c.writeBuf.Writable(), c.scratch[:written])
	c.writeBuf.AdvanceWrite(written)
	c.readBuf.AdvanceRead(consumed)
	return true, false
}

// handleWritable implements the SendResponse entry action from spec.md
// §4.5: one nonblocking write, then reset and return to ReadRequest once
// the buffer drains, executing any requests already waiting in the read
// buffer.
func (s *Server) handleWritable(c *Connection, revents int16) (shouldDelete bool) {
	if revents&pollErr != 0 {
		return true
	}

	n, err := unix.Write(c.fd, c.writeBuf.Readable())
	switch {
	case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
		return false
	case err != nil:
		return true
	}

	c.writeBuf.AdvanceRead(n)
	s.stats.AddBytesWritten(uint64(n))

	if c.writeBuf.IsEmpty() {
		c.writeBuf.Reset()
		c.state = stateReadRequest

		// Requests that were held back for lack of write-buffer room are
		// still sitting in the read buffer; run them now, since no further
		// bytes may arrive on the socket to wake the read path.
		for {
			handled, fatal := s.tryOneRequest(c)
			if fatal {
				return true
			}
			if !handled {
				break
			}
		}
		if !c.writeBuf.IsEmpty() {
			c.state = stateSendResponse
		}
	}
	return false
}
