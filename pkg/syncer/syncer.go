// Package syncer rewrites a contract registry document so that every
// configured entry carries its current address and ABI.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	logging "github.com/ipfs/go-log/v2"
	"github.com/moby/sys/atomicwriter"
	"github.com/raulk/clock"
	"github.com/samber/lo"

	"github.com/shll/contractsync/pkg/abi"
	"github.com/shll/contractsync/pkg/config/app"
	"github.com/shll/contractsync/pkg/patcher"
)

var log = logging.Logger("syncer")

// ErrOutOfDate is returned by Check when the target document would change.
var ErrOutOfDate = errors.New("target document is out of date")

type Syncer struct {
	cfg     app.SyncConfig
	patcher *patcher.Patcher
	clock   clock.Clock
}

type Option func(*Syncer)

// WithClock sets the clock used to debounce watch mode.
func WithClock(clock clock.Clock) Option {
	return func(s *Syncer) {
		s.clock = clock
	}
}

func New(cfg app.SyncConfig, opts ...Option) *Syncer {
	s := &Syncer{
		cfg: cfg,
		patcher: patcher.New(
			patcher.WithAddressAnchor(cfg.Patcher.AddressAnchor),
			patcher.WithPayloadAnchor(cfg.Patcher.PayloadAnchor),
			patcher.WithFallbackAnchor(cfg.Patcher.FallbackAnchor),
			patcher.WithWordBoundary(cfg.Patcher.WordBoundary),
			patcher.WithQuoteAware(cfg.Patcher.QuoteAware),
			patcher.WithEntryTemplate(cfg.Patcher.EntryTemplate),
		),
		clock: clock.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// plan is a fully computed run that has not touched storage.
type plan struct {
	report *Report
	doc    []byte
	mode   fs.FileMode
	// path is the target with symlinks resolved.
	path string
}

// Plan computes the patched document and reports what would change. Nothing
// is written.
func (s *Syncer) Plan(ctx context.Context) (*Report, error) {
	p, err := s.plan(ctx)
	if err != nil {
		return nil, err
	}
	return p.report, nil
}

// Sync computes the patched document and stores it when it differs from the
// document on disk.
func (s *Syncer) Sync(ctx context.Context) (*Report, error) {
	p, err := s.plan(ctx)
	if err != nil {
		return nil, err
	}
	if !p.report.Changed {
		log.Infow("target document up to date", "target", s.cfg.Target.Path, "run", p.report.RunID)
		return p.report, nil
	}

	// atomicwriter refuses symlinks, so write through to the file they point at.
	if err := atomicwriter.WriteFile(p.path, p.doc, p.mode); err != nil {
		return nil, fmt.Errorf("writing %s: %w", s.cfg.Target.Path, err)
	}
	p.report.Written = true

	updated, inserted := p.report.Counts()
	log.Infow("target document written", "target", s.cfg.Target.Path, "run", p.report.RunID, "updated", updated, "inserted", inserted)
	return p.report, nil
}

// Check reports ErrOutOfDate, alongside the report, when a sync would change
// the target document.
func (s *Syncer) Check(ctx context.Context) (*Report, error) {
	report, err := s.Plan(ctx)
	if err != nil {
		return nil, err
	}
	if report.Changed {
		return report, ErrOutOfDate
	}
	return report, nil
}

func (s *Syncer) plan(ctx context.Context) (*plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runID := uuid.New()
	log.Debugw("planning sync", "run", runID, "target", s.cfg.Target.Path, "contracts", len(s.cfg.Contracts))

	payloads, target, original, err := s.loadInputs()
	if err != nil {
		return nil, err
	}

	requests := make([]patcher.Request, len(s.cfg.Contracts))
	for i, c := range s.cfg.Contracts {
		requests[i] = patcher.Request{
			Name:    c.Name,
			Address: c.Address,
			Payload: payloads[i].Render(),
		}
	}

	doc, results, err := s.patcher.Apply(string(original), requests)
	if err != nil {
		return nil, fmt.Errorf("patching %s: %w", s.cfg.Target.Path, err)
	}

	report := &Report{
		RunID:   runID,
		Target:  s.cfg.Target.Path,
		Changed: doc != string(original),
	}
	for i, res := range results {
		report.Entries = append(report.Entries, newEntryReport(res, requests[i], s.cfg.Contracts[i].ABIPath, payloads[i]))
	}

	return &plan{report: report, doc: []byte(doc), mode: target.mode, path: target.path}, nil
}

// loadInputs reads every ABI and the target document. Failures are collected
// so a single run reports every missing or malformed input.
func (s *Syncer) loadInputs() ([]abi.Payload, targetFile, []byte, error) {
	var merr *multierror.Error

	payloads := lo.Map(s.cfg.Contracts, func(c app.ContractConfig, _ int) abi.Payload {
		p, err := abi.Load(c.ABIPath)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("contract %s: %w", c.Name, err))
		}
		return p
	})

	target, doc, err := readTarget(s.cfg.Target.Path)
	if err != nil {
		merr = multierror.Append(merr, err)
	}

	if err := merr.ErrorOrNil(); err != nil {
		return nil, targetFile{}, nil, err
	}
	return payloads, target, doc, nil
}

// targetFile is the regular file a target path resolves to.
type targetFile struct {
	path string
	mode fs.FileMode
}

func readTarget(path string) (targetFile, []byte, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return targetFile{}, nil, &abi.MissingFileError{Path: path, Cause: err}
		}
		return targetFile{}, nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return targetFile{}, nil, &abi.MissingFileError{Path: path, Cause: err}
		}
		return targetFile{}, nil, err
	}
	if info.IsDir() {
		return targetFile{}, nil, &abi.MissingFileError{Path: path, Cause: errors.New("is a directory")}
	}
	doc, err := os.ReadFile(resolved)
	if err != nil {
		return targetFile{}, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return targetFile{path: resolved, mode: info.Mode().Perm()}, doc, nil
}
