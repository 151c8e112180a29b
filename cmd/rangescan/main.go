package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"runtime"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/jboursiquot/rangescan/internal/portrange"
	"github.com/jboursiquot/rangescan/internal/probe"
	"github.com/jboursiquot/rangescan/internal/report"
	"github.com/jboursiquot/rangescan/internal/scan"
)

const usage = "Usage: rangescan [flags] <ip-address> <start>-<end>"

var numWorkers int
var timeout time.Duration
var verbose bool
var showProgress bool

func init() {
	flag.IntVar(&numWorkers, "workers", runtime.NumCPU(), "Number of concurrent probes. 1 probes sequentially.")
	flag.DurationVar(&timeout, "timeout", probe.DefaultTimeout, "Per-port connection timeout.")
	flag.BoolVar(&verbose, "v", false, "Log every probe outcome to stderr.")
	flag.BoolVar(&showProgress, "progress", false, "Show a progress bar on stderr when it is a terminal.")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
}

type config struct {
	workers  int
	timeout  time.Duration
	verbose  bool
	progress bool
}

func main() {
	flag.Parse()

	cfg := config{
		workers:  numWorkers,
		timeout:  timeout,
		verbose:  verbose,
		progress: showProgress && (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())),
	}
	os.Exit(run(flag.Args(), cfg, os.Stdout, os.Stderr))
}

func run(args []string, cfg config, stdout, stderr io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(stderr, usage)
		return 2
	}
	if cfg.workers <= 0 {
		fmt.Fprintf(stderr, "Invalid flag value: workers must be positive, got %d\n", cfg.workers)
		return 2
	}
	if cfg.timeout <= 0 {
		fmt.Fprintf(stderr, "Invalid flag value: timeout must be positive, got %s\n", cfg.timeout)
		return 2
	}

	ip := net.ParseIP(args[0])
	if ip == nil {
		fmt.Fprintln(stderr, "Invalid IP address.")
		return 1
	}

	ports, err := portrange.Parse(args[1])
	if err != nil {
		fmt.Fprintf(stderr, "Invalid port range: %s\n", err)
		return 1
	}

	logger := log.New(io.Discard, "", 0)
	if cfg.verbose {
		logger = log.New(stderr, "", log.LstdFlags)
	}

	var bar *report.Progress
	if cfg.progress {
		bar = report.NewProgress(stderr, len(ports))
	}
	printer := report.NewPrinter(stdout)

	s := scan.New(probe.New(cfg.timeout, logger), cfg.workers).WithLogger(logger)
	err = s.Scan(context.Background(), ip, ports, func(r scan.Result) {
		if r.Outcome == probe.Open {
			bar.Clear()
			if err := printer.Open(r.Port); err != nil {
				logger.Printf("failed to write result for port %d: %v\n", r.Port, err)
			}
		}
		bar.Advance()
	})
	bar.Finish()
	if err != nil {
		fmt.Fprintf(stderr, "Scan aborted: %v\n", err)
		return 1
	}
	return 0
}
