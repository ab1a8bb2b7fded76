package bridge

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
)

// Send delivers one request line to the bridge on port and returns its
// reply. It is the client side used by Git hooks.
func Send(ctx context.Context, port int, line string) (string, error) {
	var d net.Dialer
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("%w: bridge at %s: %v", kerrors.ErrConnectionFailure, addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(10 * time.Minute))
	}

	line = strings.TrimRight(line, "\r\n")
	if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrConnectionFailure, err)
	}

	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && reply == "" {
		return "", fmt.Errorf("%w: no reply from bridge: %v", kerrors.ErrConnectionFailure, err)
	}
	return strings.TrimRight(reply, "\r\n"), nil
}
