package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cleared-dev/receipts/internal/config"
	"github.com/cleared-dev/receipts/internal/diagnostics"
	"github.com/cleared-dev/receipts/internal/engine"
	"github.com/cleared-dev/receipts/internal/gitops"
	"github.com/cleared-dev/receipts/internal/ocr"
	"github.com/cleared-dev/receipts/internal/patterns"
	"github.com/cleared-dev/receipts/internal/statsdb"
)

// project is an opened receipts project: configuration, catalogue with its
// persisted counters, and the engine built on them.
type project struct {
	root      string
	cfg       *config.Config
	catalogue *patterns.Catalogue
	store     *statsdb.Store
	metrics   *diagnostics.Metrics
	tracker   *diagnostics.Tracker
	engine    *engine.Engine
}

func openProject(root string) (*project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project: %w", err)
	}
	cfg, err := config.Load(filepath.Join(abs, config.FileName))
	if err != nil {
		return nil, fmt.Errorf("loading project (run `receipts init` first?): %w", err)
	}
	if err := cfg.Err(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.FileName, err)
	}

	cat, err := patterns.Load(config.Resolve(abs, cfg.Catalogue.Path), config.Resolve(abs, cfg.Catalogue.LearnedPath))
	if err != nil {
		return nil, err
	}

	store, err := statsdb.Open(config.Resolve(abs, cfg.Stats.DBPath))
	if err != nil {
		return nil, err
	}
	counts, err := store.LoadCounters()
	if err != nil {
		store.Close()
		return nil, err
	}
	cat.ApplyCounters(counts)

	metrics := diagnostics.NewMetrics()
	tracker := diagnostics.NewTracker(cat, metrics)
	return &project{
		root:      abs,
		cfg:       cfg,
		catalogue: cat,
		store:     store,
		metrics:   metrics,
		tracker:   tracker,
		engine:    engine.New(cat, tracker, cfg.EngineOptions()),
	}, nil
}

func (p *project) path(rel string) string {
	return config.Resolve(p.root, rel)
}

func (p *project) recognizers() *ocr.Registry {
	return ocr.DefaultRegistry(&ocr.Tesseract{
		Binary:      p.cfg.OCR.Binary,
		Lang:        p.cfg.OCR.Lang,
		TessdataDir: p.path(p.cfg.OCR.TessdataDir),
	})
}

// saveCatalogue writes both pattern files and returns their configured paths.
func (p *project) saveCatalogue() ([]string, error) {
	if err := p.catalogue.Save(p.path(p.cfg.Catalogue.Path)); err != nil {
		return nil, err
	}
	paths := []string{p.cfg.Catalogue.Path}
	if p.cfg.Catalogue.LearnedPath != "" {
		if err := p.catalogue.SaveLearned(p.path(p.cfg.Catalogue.LearnedPath)); err != nil {
			return nil, err
		}
		paths = append(paths, p.cfg.Catalogue.LearnedPath)
	}
	return paths, nil
}

// commit records paths in git when auto_commit is on and the project is a repository.
func (p *project) commit(message string, paths ...string) (string, error) {
	if !p.cfg.Git.AutoCommit || !gitops.IsRepo(p.root) {
		return "", nil
	}
	author := gitops.Author{Name: p.cfg.Git.AuthorName, Email: p.cfg.Git.AuthorEmail}
	hash, err := gitops.CommitPaths(p.root, message, author, paths...)
	if err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	return hash, nil
}

// close persists the counters and this run's totals.
func (p *project) close() error {
	var errs []error
	if err := p.store.SaveCounters(p.catalogue.Counters()); err != nil {
		errs = append(errs, err)
	}
	if n := p.tracker.Parses(); n > 0 {
		if _, err := p.store.AddTotals(n, p.tracker.Detected(), p.tracker.Reliable()); err != nil {
			errs = append(errs, err)
		}
	}
	if err := p.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// closeInto closes p and reports its error through err unless err is already set.
func closeInto(p *project, err *error) {
	if cerr := p.close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
