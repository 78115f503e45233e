package docmerge

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Merger runs the merge pipeline with one configuration. A Merger is safe for concurrent use;
// every call works on its own packages.
type Merger struct {
	config *Config
	logger *Logger
	cache  *PackageCache
}

// Report describes one merge.
type Report struct {
	MergeID   string
	Remap     *RelationshipRemap
	Splice    *SpliceResult
	Warnings  []*MergeError
	Copied    []string
	Rewritten []string
	// ContentTypesAdded lists parts that got a manifest entry during assembly.
	ContentTypesAdded []string
	// Digest is the hex BLAKE3 digest of the output archive.
	Digest   string
	Size     int
	Duration time.Duration
}

// Result is the output archive together with its report.
type Result struct {
	Data   []byte
	Report *Report
}

// New creates a merger with the global configuration.
func New() *Merger {
	return NewWithConfig(GetGlobalConfig())
}

// NewWithConfig creates a merger with a custom configuration. Unset fields take defaults.
func NewWithConfig(config *Config) *Merger {
	config = NewConfigWithDefaults(config)
	return &Merger{
		config: config,
		logger: GetLogger(),
		cache: NewPackageCacheWithConfig(CacheConfig{
			MaxSize: config.CacheMaxSize,
			TTL:     config.CacheTTL,
		}),
	}
}

// Option represents a configuration option for the merger.
type Option func(*Merger)

// WithLogger returns an option that sets the logger.
func WithLogger(logger *Logger) Option {
	return func(m *Merger) {
		m.logger = logger
	}
}

// WithCache returns an option that replaces the package cache. A nil cache disables caching.
func WithCache(cache *PackageCache) Option {
	return func(m *Merger) {
		m.cache = cache
	}
}

// NewWithOptions creates a merger from config and applies opts.
func NewWithOptions(config *Config, opts ...Option) *Merger {
	m := NewWithConfig(config)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the merger's configuration.
func (m *Merger) Config() *Config {
	return m.config
}

// Merge merges two DOCX archives with the global configuration and returns the output archive.
func Merge(cover, body []byte, subs *Substitutions) ([]byte, error) {
	result, err := New().Merge(cover, body, subs)
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}

// Merge loads both archives and merges body into cover.
func (m *Merger) Merge(cover, body []byte, subs *Substitutions) (*Result, error) {
	coverPkg, err := m.cache.Load(cover, m.config)
	if err != nil {
		return nil, WithContext(err, "load cover", nil)
	}
	bodyPkg, err := m.cache.Load(body, m.config)
	if err != nil {
		return nil, WithContext(err, "load body", nil)
	}
	return m.MergePackages(coverPkg, bodyPkg, subs)
}

// MergePackages merges two loaded packages. Both are consumed: cover becomes the output and
// body loses its content. A panic inside the pipeline is returned as an AssemblyError.
func (m *Merger) MergePackages(cover, body *Package, subs *Substitutions) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = NewMergeError(AssemblyError, "", "merge aborted", RecoverError(r))
		}
	}()

	start := time.Now()
	report := &Report{MergeID: uuid.NewString()}
	log := m.logger.WithField("merge_id", report.MergeID)

	remap, err := ResolveRelationships(cover, body)
	if err != nil {
		return nil, err
	}
	report.Remap = remap
	log.WithField("component", "resolver").Debug("resolved %d body relationships: %d reused, %d added, %d renamed",
		len(remap.IDs), len(remap.Reused), len(remap.Added), len(remap.Targets))

	splice, err := Splice(cover.Document, body.Document, remap, SpliceOptions{
		ForcePageBreak:  !m.config.DisablePageBreak,
		MergeNamespaces: !m.config.DisableNamespaceMerge,
	})
	if err != nil {
		return nil, err
	}
	report.Splice = splice
	report.Warnings = append(report.Warnings, splice.Warnings...)
	log.WithField("component", "splicer").Debug("inserted %d blocks, boundary %s", splice.Blocks, describeBoundary(splice))
	if len(splice.NamespaceConflicts) > 0 {
		log.WithField("component", "splicer").Warn("namespace prefixes bound differently in cover and body: %v", splice.NamespaceConflicts)
	}

	copies, err := CopyParts(cover, remap, body)
	if err != nil {
		return nil, err
	}
	report.Copied = copies.Copied
	report.Warnings = append(report.Warnings, copies.Warnings...)

	report.Rewritten = RewriteHeaderFooters(cover.Parts, subs)
	if len(report.Rewritten) > 0 {
		log.WithField("component", "headers").Debug("rewrote placeholders in %v", report.Rewritten)
	}

	report.ContentTypesAdded = FinalizeContentTypes(cover, body, copies.Copies)

	for _, w := range report.Warnings {
		log.Warn("%v", w)
	}
	if m.config.StrictMode && len(report.Warnings) > 0 {
		errs := NewMultiError()
		for _, w := range report.Warnings {
			errs.Add(w)
		}
		return nil, WithContext(errs.Err(), "strict mode", map[string]interface{}{"warnings": len(report.Warnings)})
	}

	data, err := Assemble(cover, m.config)
	if err != nil {
		return nil, err
	}

	report.Digest = Digest(data)
	report.Size = len(data)
	report.Duration = time.Since(start)
	log.Info("merged %d blocks, copied %d parts, output %s", splice.Blocks, len(report.Copied), humanize.Bytes(uint64(report.Size)))

	return &Result{Data: data, Report: report}, nil
}

// MergeFiles merges the archives at coverPath and bodyPath and writes the result to outPath.
// The output is written to a temporary file in the same directory and renamed into place, so
// outPath either holds a complete archive or is left untouched.
func (m *Merger) MergeFiles(coverPath, bodyPath, outPath string, subs *Substitutions) (*Result, error) {
	cover, err := os.ReadFile(coverPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cover: %w", err)
	}
	body, err := os.ReadFile(bodyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	result, err := m.Merge(cover, body, subs)
	if err != nil {
		return nil, err
	}

	if err := WriteFileAtomic(outPath, result.Data); err != nil {
		return nil, err
	}
	return result, nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames it into place.
func WriteFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".docmerge-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync output: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
