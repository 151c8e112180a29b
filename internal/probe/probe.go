// Package probe runs single TCP connect attempts and classifies the outcome.
package probe

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// DefaultTimeout bounds one connection attempt.
const DefaultTimeout = 5 * time.Second

// Outcome is the classification of one connection attempt.
type Outcome int

const (
	// Unreachable covers timeouts, unreachable hosts or networks and any
	// other dial failure that is not an explicit refusal.
	Unreachable Outcome = iota
	// Closed means the target answered and refused the connection.
	Closed
	// Open means the connection was established.
	Open
)

func (o Outcome) String() string {
	switch o {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unreachable"
	}
}

// Prober attempts TCP connections with a fixed per-attempt timeout.
type Prober struct {
	Timeout time.Duration

	logger *log.Logger
	dial   func(ctx context.Context, network, address string) (net.Conn, error)
}

// New returns a Prober. A non-positive timeout falls back to DefaultTimeout
// and a nil logger discards everything.
func New(timeout time.Duration, logger *log.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	d := &net.Dialer{Timeout: timeout}
	return &Prober{
		Timeout: timeout,
		logger:  logger,
		dial:    d.DialContext,
	}
}

// Probe makes one connection attempt to ip:port. An established connection is
// closed right away without reading or writing.
func (p *Prober) Probe(ctx context.Context, ip net.IP, port uint16) Outcome {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	address := net.JoinHostPort(ip.String(), strconv.Itoa(int(port)))
	conn, err := p.dial(ctx, "tcp", address)
	if err != nil {
		o := classify(err)
		p.logger.Printf("%d %s (%s)\n", port, strings.ToUpper(o.String()), err)
		return o
	}
	conn.Close()
	p.logger.Printf("%d OPEN\n", port)
	return Open
}

func classify(err error) Outcome {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return Closed
	}
	return Unreachable
}
