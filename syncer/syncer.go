// Package syncer runs a full Transifex pull: the coverage pipeline, which
// writes index.json, and the content pipeline, which writes one JSON file
// per locale. The two pipelines share nothing but the fetcher and run in
// parallel; a failure in one does not stop the other.
package syncer

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/minios-linux/txsync/config"
	"github.com/minios-linux/txsync/coverage"
	"github.com/minios-linux/txsync/locale"
	"github.com/minios-linux/txsync/localefile"
	"github.com/minios-linux/txsync/lockfile"
	"github.com/minios-linux/txsync/merge"
	"github.com/minios-linux/txsync/pacer"
	"github.com/minios-linux/txsync/sanitize"
	"github.com/minios-linux/txsync/settings"
	"github.com/minios-linux/txsync/transifex"
)

// Fetcher is the remote side of a sync. *transifex.Client implements it.
type Fetcher interface {
	ResourceStats(ctx context.Context, resourceID string) (transifex.ResourceStats, error)
	Languages(ctx context.Context, resourceID string, sourceLocale locale.Code) ([]locale.Code, error)
	Translation(ctx context.Context, resourceID string, code locale.Code, reviewed bool) (map[string]any, error)
}

// Options controls a sync run.
type Options struct {
	// Resources are synced in this order; later resources win on merge.
	Resources []string
	// SourceLocale is never downloaded and always reported complete.
	SourceLocale locale.Code
	// Review selects locales restricted to reviewed strings.
	Review config.ReviewPolicy
	// Dir receives index.json and the locale files.
	Dir string
	// Interval is the delay between two requests of one batch.
	Interval time.Duration
	// Lock, if set, receives the checksum of every artifact written. It is
	// stamped with the run only when both pipelines succeed. Saving it is
	// up to the caller.
	Lock *lockfile.LockFile
}

// Syncer runs sync pipelines. It keeps no state between runs.
type Syncer struct {
	fetch Fetcher
	opts  Options
	log   *zap.Logger
}

// New creates a Syncer.
func New(fetch Fetcher, opts Options, log *zap.Logger) *Syncer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Syncer{fetch: fetch, opts: opts, log: log}
}

// FromConfig builds a Syncer backed by a Transifex client. lock may be nil.
func FromConfig(cfg *config.Config, creds settings.Credentials, lock *lockfile.LockFile, log *zap.Logger) *Syncer {
	client := transifex.New(transifex.Options{
		APIURL:       cfg.APIURL,
		StatsAPIURL:  cfg.StatsAPIURL,
		Organization: cfg.Organization,
		Project:      cfg.Project,
		User:         creds.User,
		Password:     creds.Password,
		Timeout:      cfg.Timeout,
		Logger:       log,
	})

	return New(client, Options{
		Resources:    cfg.Resources,
		SourceLocale: cfg.Source(),
		Review:       cfg.ReviewedOnly,
		Dir:          cfg.TranslationsDir(),
		Interval:     cfg.RequestInterval,
		Lock:         lock,
	}, log)
}

// Report describes what a run produced. Each pipeline's fields are set
// only by that pipeline.
type Report struct {
	// RunID identifies the run in logs and in the lock file.
	RunID uuid.UUID

	// Coverage is the written index, nil if the coverage pipeline failed.
	Coverage        coverage.Index
	CoverageChanged bool
	CoverageErr     error

	// Locales are the locale files written, in ascending order.
	Locales        []locale.Code
	ChangedLocales []locale.Code
	ContentErr     error
}

// Run executes both pipelines and waits for them. The returned error
// combines the failures of both.
func (s *Syncer) Run(ctx context.Context) (*Report, error) {
	r := Report{RunID: uuid.New()}

	run := *s
	run.log = s.log.With(zap.Stringer("run_id", r.RunID))
	run.log.Info("sync started", zap.Strings("resources", s.opts.Resources))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.Coverage, r.CoverageChanged, r.CoverageErr = run.SyncCoverage(ctx)
	}()
	go func() {
		defer wg.Done()
		r.Locales, r.ChangedLocales, r.ContentErr = run.SyncContent(ctx)
	}()
	wg.Wait()

	err := multierr.Combine(r.CoverageErr, r.ContentErr)
	if err == nil && s.opts.Lock != nil {
		s.opts.Lock.Touch(r.RunID.String(), s.opts.Resources, time.Now())
	}
	return &r, err
}

// ---------------------------------------------------------------------------
// Coverage pipeline
// ---------------------------------------------------------------------------

// SyncCoverage fetches the stats of every resource and writes index.json.
// Nothing is written if any fetch fails.
func (s *Syncer) SyncCoverage(ctx context.Context) (idx coverage.Index, changed bool, err error) {
	stats, err := pacer.Map(ctx, s.opts.Resources, s.opts.Interval, func(ctx context.Context, id string) (transifex.ResourceStats, error) {
		st, err := s.fetch.ResourceStats(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resource %s: stats: %w", id, err)
		}
		return st, nil
	})
	if err != nil {
		s.log.Error("coverage sync failed, index not written", zap.Error(err))
		return nil, false, err
	}

	idx = coverage.Aggregate(stats, s.opts.Review, s.opts.SourceLocale)

	changed, err = coverage.Write(s.opts.Dir, idx)
	if err != nil {
		s.log.Error("writing coverage index", zap.Error(err))
		return nil, false, err
	}
	s.record(filepath.Join(s.opts.Dir, localefile.IndexName))

	s.log.Info("coverage index written",
		zap.Int("locales", len(idx)),
		zap.Bool("changed", changed),
		zap.String("dir", s.opts.Dir))
	return idx, changed, nil
}

// ---------------------------------------------------------------------------
// Content pipeline
// ---------------------------------------------------------------------------

// SyncContent fetches, sanitizes and merges the content of every resource
// and writes one file per locale. No file is written if any fetch fails.
func (s *Syncer) SyncContent(ctx context.Context) (written, changed []locale.Code, err error) {
	resources, err := pacer.Map(ctx, s.opts.Resources, s.opts.Interval, s.fetchResource)
	if err != nil {
		s.log.Error("content sync failed, locale files not written", zap.Error(err))
		return nil, nil, err
	}

	files := merge.Locales(resources)

	var errs error
	for _, code := range files.Codes() {
		ok, werr := localefile.Write(s.opts.Dir, code, files[code])
		if werr != nil {
			errs = multierr.Append(errs, fmt.Errorf("locale %s: %w", code, werr))
			continue
		}
		written = append(written, code)
		s.record(localefile.Path(s.opts.Dir, code))
		if ok {
			changed = append(changed, code)
		}
	}

	s.log.Info("locale files written",
		zap.Int("locales", len(written)),
		zap.Int("changed", len(changed)),
		zap.String("dir", s.opts.Dir))
	if errs != nil {
		s.log.Error("writing locale files", zap.Error(errs))
	}
	return written, changed, errs
}

// record notes a written artifact in the lock. Failures are logged only.
func (s *Syncer) record(path string) {
	if s.opts.Lock == nil {
		return
	}
	if err := s.opts.Lock.RecordFile(path); err != nil {
		s.log.Warn("recording artifact checksum", zap.String("path", path), zap.Error(err))
	}
}

// fetchResource downloads and sanitizes every non-source locale of one
// resource. A failing locale fails the resource, after its siblings have
// completed.
func (s *Syncer) fetchResource(ctx context.Context, resourceID string) (merge.Resource, error) {
	codes, err := s.fetch.Languages(ctx, resourceID, s.opts.SourceLocale)
	if err != nil {
		return nil, fmt.Errorf("resource %s: languages: %w", resourceID, err)
	}

	contents, err := pacer.Map(ctx, codes, s.opts.Interval, func(ctx context.Context, code locale.Code) (map[string]any, error) {
		content, err := s.fetch.Translation(ctx, resourceID, code, s.opts.Review.Applies(string(code)))
		if err != nil {
			return nil, fmt.Errorf("resource %s: locale %s: %w", resourceID, code, err)
		}
		sanitize.Locale(content)
		return content, nil
	})
	if err != nil {
		return nil, err
	}

	res := make(merge.Resource, len(codes))
	for i, code := range codes {
		res[code] = contents[i]
	}
	s.log.Debug("resource fetched", zap.String("resource", resourceID), zap.Int("locales", len(codes)))
	return res, nil
}
