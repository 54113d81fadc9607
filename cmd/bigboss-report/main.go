package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"bigboss/internal/cli"
	"bigboss/internal/config"
	"bigboss/internal/core"
	"bigboss/internal/log"
	"bigboss/internal/report"
)

type options struct {
	server     string
	year       int
	from       int
	to         int
	membership string
	out        string
	keepEmpty  bool
	timeout    time.Duration
}

func parseFlags(args []string, cfg *config.Config) (options, error) {
	fs := flag.NewFlagSet("bigboss-report", flag.ContinueOnError)
	var o options
	fs.StringVar(&o.server, "server", cfg.ServerURL, "base URL of the bigboss server")
	fs.IntVar(&o.year, "year", time.Now().Year(), "report year")
	fs.IntVar(&o.from, "from", 0, "first month (1-12); needs -to")
	fs.IntVar(&o.to, "to", 0, "last month (1-12); needs -from")
	fs.StringVar(&o.membership, "membership", "", "membership category; synonyms such as 'premium' are accepted")
	fs.StringVar(&o.out, "out", "", "output file, '-' for stdout (default income_report_<year>_<from>-<to>.csv)")
	fs.BoolVar(&o.keepEmpty, "keep-empty", false, "keep months without income")
	fs.DurationVar(&o.timeout, "timeout", cfg.ReportTimeout, "request timeout")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return o, nil
}

func (o options) filter() (report.Filter, error) {
	f := report.Filter{Year: o.year, FromMonth: o.from, ToMonth: o.to}
	if !f.HasMonthRange() {
		f.FromMonth, f.ToMonth = 0, 0
	}
	if o.membership != "" {
		m, err := core.ParseMembership(o.membership)
		if err != nil {
			return report.Filter{}, report.ErrInvalidMembership
		}
		f.Membership = m
	}
	return f, f.Validate()
}

func run(ctx context.Context, o options, stdout io.Writer) (string, error) {
	f, err := o.filter()
	if err != nil {
		return "", err
	}

	rows, err := report.NewClient(o.server, o.timeout).FetchMonthly(ctx, f)
	if err != nil {
		return "", err
	}

	span := f.Span()
	grid := report.Regroup(rows, span, f.Membership)
	if !o.keepEmpty {
		grid = grid.WithoutEmptyMonths()
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, grid); err != nil {
		return "", err
	}

	out := o.out
	if out == "" {
		out = report.CSVFilename(span)
	}
	if out == "-" {
		_, err := stdout.Write(buf.Bytes())
		return out, err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return out, nil
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), log.ComponentReport)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Configuration load failed", log.FieldError, err)
		os.Exit(1)
	}

	o, err := parseFlags(os.Args[1:], cfg)
	if err != nil {
		os.Exit(2)
	}

	out, err := run(context.Background(), o, os.Stdout)
	if err != nil {
		logger.Error("Report export failed", log.FieldError, err, log.FieldYear, o.year)
		os.Exit(1)
	}
	if out != "-" {
		logger.Info("Report written", "file", out)
	}
}
