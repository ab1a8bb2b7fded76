package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PolarWolf314/zkgit/internal/commands"
	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
	logger "github.com/PolarWolf314/zkgit/internal/logging"
	"github.com/PolarWolf314/zkgit/internal/session"
)

const (
	// PortUnavailable is what Port reports while the bridge is not bound.
	PortUnavailable = -1

	// ReplySuccess is the line sent when a command chain succeeds.
	ReplySuccess = "SUCCESS"

	replyEmpty     = "Empty command"
	replyMalformed = "Malformed command"
	replyExit      = "EXIT is only available from the shell"

	maxLineLength = 4096
	ioTimeout     = 30 * time.Second
)

// Dispatcher runs a command chain, calling prepare first under the same
// lock that serializes chains.
type Dispatcher interface {
	ExecuteWith(ctx context.Context, name string, prepare func()) commands.Response
}

// Server is the loopback endpoint through which Git hooks drive commands
// against the running session. Each connection carries one request line and
// one reply line.
type Server struct {
	disp Dispatcher
	repo *session.CurrentRepo
	log  logger.Logger

	mu     sync.Mutex
	ln     net.Listener
	port   int
	cancel context.CancelFunc
	conns  map[net.Conn]struct{}
	wg     sync.WaitGroup
}

func New(disp Dispatcher, repo *session.CurrentRepo, log logger.Logger) *Server {
	return &Server{
		disp:  disp,
		repo:  repo,
		log:   log,
		port:  PortUnavailable,
		conns: make(map[net.Conn]struct{}),
	}
}

// Port returns the bound port, or PortUnavailable.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Start stops any running listener and binds 127.0.0.1:port. Port 0 picks a
// free port. A bind failure leaves the bridge stopped and returns
// ErrPortUnavailable.
func (s *Server) Start(port int) error {
	if err := s.Stop(); err != nil {
		s.log.Debugf("Stopping previous bridge listener: %v", err)
	}

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.log.Warnf("Bridge could not listen on %s: %v", addr, err)
		return fmt.Errorf("%w: %s: %v", kerrors.ErrPortUnavailable, addr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.ln = ln
	s.port = ln.Addr().(*net.TCPAddr).Port
	s.cancel = cancel
	s.mu.Unlock()

	s.log.Infof("Bridge listening on 127.0.0.1:%d", s.Port())

	s.wg.Add(1)
	go s.acceptLoop(ctx, ln)
	return nil
}

// Stop closes the listener, unblocks connections still waiting for a
// request line and waits for every handler to finish.
func (s *Server) Stop() error {
	s.mu.Lock()
	ln, cancel := s.ln, s.cancel
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.ln, s.cancel = nil, nil
	s.port = PortUnavailable
	s.mu.Unlock()

	if ln == nil {
		return nil
	}
	cancel()

	var g errgroup.Group
	g.Go(func() error {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
		return nil
	})
	for _, c := range conns {
		g.Go(func() error {
			return c.SetReadDeadline(time.Now())
		})
	}
	err := g.Wait()

	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.log.Errorf("Bridge accept failed: %v", err)
			}
			return
		}

		s.track(conn, true)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.track(conn, false)
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) track(c net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(ioTimeout))
	line, err := bufio.NewReader(io.LimitReader(conn, maxLineLength)).ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if !errors.Is(err, io.EOF) {
			s.log.Debugf("Bridge read failed: %v", err)
		}
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	reply := s.Handle(ctx, line)

	_ = conn.SetWriteDeadline(time.Now().Add(ioTimeout))
	if _, err := io.WriteString(conn, reply+"\n"); err != nil {
		s.log.Debugf("Bridge write failed: %v", err)
	}
}

// Handle executes one request line of the form
// "COMMAND [repoName] [repoSignature]" and returns the reply line.
func (s *Server) Handle(ctx context.Context, line string) string {
	fields := strings.Fields(line)
	switch {
	case len(fields) == 0:
		return replyEmpty
	case len(fields) > 3:
		return replyMalformed
	case fields[0] == commands.NameExit:
		return replyExit
	}

	name := fields[0]
	var selectRepo func()
	if len(fields) >= 2 {
		var sig string
		if len(fields) == 3 {
			sig = fields[2]
		}
		selectRepo = func() { s.repo.Set(fields[1], sig) }
	}

	s.log.Debugf("Bridge running %s", name)
	out := s.disp.ExecuteWith(ctx, name, selectRepo).Outcome()
	if out.Failed {
		return out.Message
	}
	return ReplySuccess
}
