// Package scan drives a Prober over a list of ports with a bounded number of
// concurrent attempts and hands results back in port order.
package scan

import (
	"context"
	"io"
	"log"
	"net"

	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jboursiquot/rangescan/internal/probe"
)

// Prober makes a single connection attempt.
type Prober interface {
	Probe(ctx context.Context, ip net.IP, port uint16) probe.Outcome
}

// Result is the outcome for one port.
type Result struct {
	Port    uint16
	Outcome probe.Outcome
}

// Scanner runs a Prober over every port it is given.
type Scanner struct {
	prober  Prober
	workers int
	logger  *log.Logger
}

// New returns a Scanner running at most workers probes at once.
func New(p Prober, workers int) *Scanner {
	if workers <= 0 {
		workers = 1
	}
	return &Scanner{
		prober:  p,
		workers: workers,
		logger:  log.New(io.Discard, "", 0),
	}
}

// WithLogger sets the logger used for scan-level messages.
func (s *Scanner) WithLogger(l *log.Logger) *Scanner {
	if l != nil {
		s.logger = l
	}
	return s
}

// Workers reports the concurrency bound.
func (s *Scanner) Workers() int { return s.workers }

type scanOp struct {
	index int
	Result
}

// Scan probes each port once and calls emit for every result in the order
// of ports. emit for a port runs as soon as that port and all ports before it
// are done; it is never called concurrently.
//
// If ctx ends before every port has been dispatched the remaining ports are
// skipped and ctx.Err() is returned.
func (s *Scanner) Scan(ctx context.Context, ip net.IP, ports []uint16, emit func(Result)) error {
	s.logger.Printf("scanning %d port(s) on %s with %d worker(s)\n", len(ports), ip, s.workers)

	results := make(chan scanOp, s.workers)
	sem := semaphore.NewWeighted(int64(s.workers))

	var dispatchErr error
	go func() {
		defer close(results)
		var g errgroup.Group
		for i, port := range ports {
			i, port := i, port
			if err := sem.Acquire(ctx, 1); err != nil {
				dispatchErr = err
				break
			}
			g.Go(func() error {
				defer sem.Release(1)
				results <- scanOp{index: i, Result: Result{Port: port, Outcome: s.prober.Probe(ctx, ip, port)}}
				return nil
			})
		}
		g.Wait()
	}()

	// pending is kept sorted by index; the collector releases its head while
	// it is the next index due.
	var pending []scanOp
	next := 0
	for op := range results {
		at, _ := slices.BinarySearchFunc(pending, op.index, func(o scanOp, index int) int {
			return o.index - index
		})
		pending = slices.Insert(pending, at, op)
		for len(pending) > 0 && pending[0].index == next {
			emit(pending[0].Result)
			pending = pending[1:]
			next++
		}
	}

	if dispatchErr != nil {
		s.logger.Printf("scan stopped after %d of %d port(s): %v\n", next, len(ports), dispatchErr)
		return dispatchErr
	}
	return nil
}

// OpenPorts scans ports and returns the open ones in the order given.
func (s *Scanner) OpenPorts(ctx context.Context, ip net.IP, ports []uint16) ([]uint16, error) {
	var open []uint16
	err := s.Scan(ctx, ip, ports, func(r Result) {
		if r.Outcome == probe.Open {
			open = append(open, r.Port)
		}
	})
	return open, err
}
