// Package detector scans source files for suspicious patterns and turns
// them into bug records.
package detector

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccollicutt/buginspector/pkg/analyzer"
	"github.com/ccollicutt/buginspector/pkg/bug"
	"github.com/ccollicutt/buginspector/pkg/parser"
	"github.com/ccollicutt/buginspector/pkg/rules"
)

// Detector applies a rule set and the structural analyzer to files.
// It holds no per-scan state and is safe for concurrent use.
type Detector struct {
	rules       *rules.Set
	analyzer    *analyzer.Analyzer
	excludeDirs []string
	logger      *slog.Logger
}

// Option configures the Detector.
type Option func(*Detector)

// WithLogger sets the logger for skipped files and read failures.
func WithLogger(l *slog.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithExcludeDirs sets the directory names skipped by directory scans. By
// default every directory is walked.
func WithExcludeDirs(dirs []string) Option {
	return func(d *Detector) {
		d.excludeDirs = dirs
	}
}

// WithAnalyzer replaces the structural analyzer.
func WithAnalyzer(a *analyzer.Analyzer) Option {
	return func(d *Detector) {
		if a != nil {
			d.analyzer = a
		}
	}
}

// New creates a Detector for set. A nil set uses rules.Default().
func New(set *rules.Set, opts ...Option) *Detector {
	if set == nil {
		set = rules.Default()
	}
	d := &Detector{
		rules:  set,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.analyzer == nil {
		d.analyzer = analyzer.Default(analyzer.WithLogger(d.logger))
	}
	return d
}

// Rules returns the rule set in use.
func (d *Detector) Rules() *rules.Set {
	return d.rules
}

// Scan returns the findings for a single file. A missing file or an
// unsupported extension yields nothing. A file that cannot be read as text
// yields one runtime_error record.
//
// Findings are ordered: syntax record, then line-pattern records by line and
// rule order, then structural records in tree order.
func (d *Detector) Scan(ctx context.Context, path string) []*bug.Bug {
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return []*bug.Bug{readErrorRecord(path, err)}
		}
		d.logger.Debug("skipping missing file", "path", path)
		return nil
	}
	if info.IsDir() || !d.rules.Supports(path) {
		return nil
	}

	src, err := parser.ReadSource(path)
	if err != nil {
		d.logger.Warn("could not read file", "path", path, "error", err)
		return []*bug.Bug{readErrorRecord(path, err)}
	}

	family := rules.FamilyForPath(path)

	var syntax, structural []*bug.Bug
	if lang := parser.ForFamily(family); lang != nil {
		tree, err := lang.Parse(ctx, src)
		if err != nil {
			syntax = append(syntax, parseErrorRecord(path, err))
		} else {
			structural = d.analyzer.Analyze(ctx, path, tree)
			tree.Close()
		}
	}

	lines := d.matchLines(path, family, src)

	out := make([]*bug.Bug, 0, len(syntax)+len(lines)+len(structural))
	out = append(out, syntax...)
	out = append(out, lines...)
	out = append(out, structural...)

	d.logger.Debug("scanned file", "path", path, "lines", len(src.Lines), "findings", len(out))
	return out
}

// matchLines tests every line against every applicable rule. A line can
// produce several records.
func (d *Detector) matchLines(path string, family rules.Family, src *parser.Source) []*bug.Bug {
	groups := d.rules.Applicable(family)

	var out []*bug.Bug
	for i, line := range src.Lines {
		for _, g := range groups {
			for ri := range g.Rules {
				r := &g.Rules[ri]
				if !r.Match(line) {
					continue
				}
				loc := bug.At(path, i+1).WithSnippet(strings.TrimSpace(line))
				b := bug.MustNew(bug.DisplayName(r.Type)+" detected", r.Message, r.Type, loc)
				b.Metadata["family"] = string(g.Family)
				b.Metadata["concern"] = string(g.Concern)
				out = append(out, b)
			}
		}
	}
	return out
}

// ScanMany scans the supported files under dir in lexical order. A missing
// directory yields nothing and a failure on one file never stops the walk.
func (d *Detector) ScanMany(ctx context.Context, dir string, recursive bool) []*bug.Bug {
	bugs, _ := d.scanDir(ctx, dir, recursive)
	return bugs
}

func (d *Detector) scanDir(ctx context.Context, dir string, recursive bool) ([]*bug.Bug, int) {
	files, err := parser.ListFiles(dir, recursive, d.excludeDirs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			d.logger.Debug("skipping missing directory", "path", dir)
		} else {
			d.logger.Warn("could not list directory", "path", dir, "error", err)
		}
		return nil, 0
	}

	var (
		out     []*bug.Bug
		scanned int
	)
	for _, f := range files {
		if ctx.Err() != nil {
			d.logger.Warn("scan cancelled", "path", dir, "error", ctx.Err())
			break
		}
		if !d.rules.Supports(f) {
			continue
		}
		out = append(out, d.Scan(ctx, f)...)
		scanned++
	}
	return out, scanned
}

// Result summarizes a scan over several paths.
type Result struct {
	Bugs []*bug.Bug

	// FilesScanned counts supported files that were read.
	FilesScanned int

	// Missing lists paths that did not exist.
	Missing []string
}

// ScanPaths scans each path, descending into directories. Paths are
// processed in the order given.
func (d *Detector) ScanPaths(ctx context.Context, paths []string, recursive bool) *Result {
	res := &Result{}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			res.Missing = append(res.Missing, p)
			continue
		}
		if info.IsDir() {
			bugs, n := d.scanDir(ctx, p, recursive)
			res.Bugs = append(res.Bugs, bugs...)
			res.FilesScanned += n
			continue
		}
		if d.rules.Supports(p) {
			res.FilesScanned++
		}
		res.Bugs = append(res.Bugs, d.Scan(ctx, p)...)
	}
	return res
}

func readErrorRecord(path string, err error) *bug.Bug {
	b := bug.MustNew(
		fmt.Sprintf("File read error: %s", path),
		fmt.Sprintf("Could not read file: %v", err),
		bug.TypeRuntimeError,
		bug.Location{FilePath: path},
	)
	b.Severity = bug.SeverityHigh
	return b
}

func parseErrorRecord(path string, err error) *bug.Bug {
	name := filepath.Base(path)

	var serr *parser.SyntaxError
	if errors.As(err, &serr) {
		loc := bug.At(path, serr.Line).WithColumn(serr.Column).WithSnippet(serr.Text)
		b := bug.MustNew(fmt.Sprintf("Syntax Error in %s", name), "Syntax error: "+serr.Msg, bug.TypeSyntaxError, loc)
		b.Severity = bug.SeverityHigh
		return b
	}

	b := bug.MustNew(
		fmt.Sprintf("Parse Error in %s", name),
		fmt.Sprintf("Could not parse file: %v", err),
		bug.TypeSyntaxError,
		bug.Location{FilePath: path},
	)
	b.Severity = bug.SeverityMedium
	return b
}
