package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"RigorScore/internal/domain"
	"RigorScore/internal/oracle"
	"RigorScore/internal/ports"
)

// ConflictConfig bounds the pairwise oracle fan-out.
type ConflictConfig struct {
	MaxPairs            int
	MaxDimensionPenalty float64
	Concurrency         int
	MaxDocumentChars    int
}

// DefaultConflictConfig compares up to 45 pairs (every pair of 10 sources).
func DefaultConflictConfig() ConflictConfig {
	return ConflictConfig{
		MaxPairs:            45,
		MaxDimensionPenalty: 60,
		Concurrency:         4,
		MaxDocumentChars:    oracle.DefaultMaxDocumentChars,
	}
}

// ConflictDeps wires the collaborators of the detector.
type ConflictDeps struct {
	Oracle    ports.Oracle
	Cache     ports.VerdictCache
	Normalize func(string) string
	Logger    *slog.Logger
}

// ConflictReport is the outcome of conflict detection.
type ConflictReport struct {
	Score          float64
	Penalty        float64
	Conflicts      []domain.Conflict
	PairsEvaluated int
	CacheHits      int
	Warnings       []domain.Warning
}

// ConflictDetector orchestrates pairwise oracle checks and turns findings into a penalty.
type ConflictDetector struct {
	oracle    ports.Oracle
	cache     ports.VerdictCache
	normalize func(string) string
	cfg       ConflictConfig
	logger    *slog.Logger
}

// NewConflictDetector fills zero config values with defaults.
func NewConflictDetector(cfg ConflictConfig, deps ConflictDeps) *ConflictDetector {
	def := DefaultConflictConfig()
	if cfg.MaxPairs <= 0 {
		cfg.MaxPairs = def.MaxPairs
	}
	if cfg.MaxDimensionPenalty <= 0 {
		cfg.MaxDimensionPenalty = def.MaxDimensionPenalty
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.MaxDocumentChars <= 0 {
		cfg.MaxDocumentChars = def.MaxDocumentChars
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ConflictDetector{
		oracle:    deps.Oracle,
		cache:     deps.Cache,
		normalize: deps.Normalize,
		cfg:       cfg,
		logger:    logger.With("component", "conflict_detector"),
	}
}

type sourcePair struct {
	a, b domain.Source
}

type pairJob struct {
	pair sourcePair
	dim  domain.ConflictDimension
}

type pairOutcome struct {
	verdict  domain.Verdict
	ok       bool
	cacheHit bool
	err      error
}

// Detect runs one oracle request per (pair, dimension) and aggregates the findings.
// Oracle failures are reported as warnings and add no penalty.
func (d *ConflictDetector) Detect(ctx context.Context, useCase domain.UseCase, sources []domain.WeightedSource) (ConflictReport, error) {
	report := ConflictReport{Score: 100}

	pairs, total := d.selectPairs(sources)
	if len(pairs) == 0 {
		return report, nil
	}
	if total > len(pairs) {
		report.Warnings = append(report.Warnings, domain.Warning{
			Code:    domain.WarnPairLimit,
			Message: fmt.Sprintf("compared %d of %d source pairs", len(pairs), total),
		})
	}

	dims := domain.ConflictDimensions()
	jobs := make([]pairJob, 0, len(pairs)*len(dims))
	for _, p := range pairs {
		for _, dim := range dims {
			jobs = append(jobs, pairJob{pair: p, dim: dim})
		}
	}

	outcomes := make([]pairOutcome, len(jobs))
	var g errgroup.Group
	g.SetLimit(d.cfg.Concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			outcomes[i] = d.evaluate(ctx, useCase, job)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return ConflictReport{}, fmt.Errorf("detect conflicts: %w", err)
	}

	report.PairsEvaluated = len(pairs)
	findings := map[string]*domain.Conflict{}
	var order []string
	for i, out := range outcomes {
		job := jobs[i]
		if out.cacheHit {
			report.CacheHits++
		}
		if out.err != nil {
			report.Warnings = append(report.Warnings, domain.Warning{
				Code:     domain.WarnOracleFailure,
				Message:  fmt.Sprintf("%s check between %s and %s failed: %v", job.dim, job.pair.a.ID, job.pair.b.ID, out.err),
				SourceID: job.pair.a.ID,
			})
			continue
		}
		if !out.ok || !out.verdict.Holds {
			continue
		}

		subject := NormalizeSubject(out.verdict.Subject)
		if subject == "" {
			subject = job.pair.a.ID + "|" + job.pair.b.ID
		}
		key := string(job.dim) + "/" + subject
		sev := domain.ParseSeverity(out.verdict.Severity)

		existing, seen := findings[key]
		if !seen {
			c := &domain.Conflict{
				Dimension: job.dim,
				Severity:  sev,
				Subject:   subject,
				SourceIDs: []string{job.pair.a.ID, job.pair.b.ID},
				Rationale: out.verdict.Rationale,
			}
			findings[key] = c
			order = append(order, key)
			continue
		}
		existing.SourceIDs = mergeIDs(existing.SourceIDs, job.pair.a.ID, job.pair.b.ID)
		if sev.Rank() > existing.Severity.Rank() {
			existing.Severity = sev
			existing.Rationale = out.verdict.Rationale
		}
	}

	perDimension := map[domain.ConflictDimension]float64{}
	for _, key := range order {
		c := findings[key]
		report.Conflicts = append(report.Conflicts, *c)
		perDimension[c.Dimension] += c.Severity.Penalty()
	}
	for _, dim := range dims {
		report.Penalty += min(perDimension[dim], d.cfg.MaxDimensionPenalty)
	}
	report.Score = domain.Clamp(100 - report.Penalty)

	sortConflicts(report.Conflicts)
	d.logger.Debug("conflict detection finished",
		"pairs", report.PairsEvaluated,
		"conflicts", len(report.Conflicts),
		"penalty", report.Penalty,
		"cache_hits", report.CacheHits)
	return report, nil
}

// selectPairs orders usable sources authoritative first, then by ID, and caps the pair list.
func (d *ConflictDetector) selectPairs(sources []domain.WeightedSource) ([]sourcePair, int) {
	usable := make([]domain.Source, 0, len(sources))
	for _, s := range sources {
		if s.HasText() {
			usable = append(usable, s.Source)
		}
	}
	if len(usable) < 2 {
		return nil, 0
	}
	sort.SliceStable(usable, func(i, j int) bool {
		if usable[i].Authoritative != usable[j].Authoritative {
			return usable[i].Authoritative
		}
		return usable[i].ID < usable[j].ID
	})

	total := len(usable) * (len(usable) - 1) / 2
	pairs := make([]sourcePair, 0, min(total, d.cfg.MaxPairs))
	for i := 0; i < len(usable); i++ {
		for j := i + 1; j < len(usable); j++ {
			if len(pairs) == d.cfg.MaxPairs {
				return pairs, total
			}
			pairs = append(pairs, sourcePair{a: usable[i], b: usable[j]})
		}
	}
	return pairs, total
}

func (d *ConflictDetector) evaluate(ctx context.Context, useCase domain.UseCase, job pairJob) pairOutcome {
	key := VerdictCacheKey(useCase, job.dim, job.pair.a.Fingerprint(), job.pair.b.Fingerprint())
	if d.cache != nil {
		cached, found, err := d.cache.Get(ctx, key)
		if err != nil {
			d.logger.Warn("verdict cache read failed", "key", key, "error", err)
		} else if found {
			return pairOutcome{verdict: cached, ok: true, cacheHit: true}
		}
	}

	if d.oracle == nil {
		return pairOutcome{err: domain.ErrOracleUnavailable}
	}
	verdict, err := d.oracle.Evaluate(ctx, domain.OracleRequest{
		Task:      domain.TaskConflict,
		Prompt:    oracle.ConflictPrompt(job.dim),
		UseCase:   useCase,
		Dimension: job.dim,
		Documents: []domain.OracleDocument{
			oracle.Document(job.pair.a, d.cfg.MaxDocumentChars, d.normalize),
			oracle.Document(job.pair.b, d.cfg.MaxDocumentChars, d.normalize),
		},
	})
	if err != nil {
		d.logger.Warn("conflict oracle call failed",
			"dimension", job.dim, "source_a", job.pair.a.ID, "source_b", job.pair.b.ID, "error", err)
		return pairOutcome{err: err}
	}

	if d.cache != nil {
		if err := d.cache.Put(ctx, key, verdict); err != nil {
			d.logger.Warn("verdict cache write failed", "key", key, "error", err)
		}
	}
	return pairOutcome{verdict: verdict, ok: true}
}

// VerdictCacheKey is scoped to the use case the prompt was rendered for and independent of pair order.
func VerdictCacheKey(useCase domain.UseCase, dim domain.ConflictDimension, hashA, hashB string) string {
	if hashB < hashA {
		hashA, hashB = hashB, hashA
	}
	return fmt.Sprintf("conflict/v2/%s/%s/%s/%s", useCase, dim, hashA, hashB)
}

// NormalizeSubject lowercases, strips punctuation and collapses whitespace.
func NormalizeSubject(subject string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, subject)
	return strings.Join(strings.Fields(cleaned), " ")
}

func mergeIDs(ids []string, more ...string) []string {
	for _, id := range more {
		found := false
		for _, existing := range ids {
			if existing == id {
				found = true
				break
			}
		}
		if !found {
			ids = append(ids, id)
		}
	}
	return ids
}

func sortConflicts(conflicts []domain.Conflict) {
	rank := map[domain.ConflictDimension]int{}
	for i, dim := range domain.ConflictDimensions() {
		rank[dim] = i
	}
	sort.SliceStable(conflicts, func(i, j int) bool {
		if conflicts[i].Dimension != conflicts[j].Dimension {
			return rank[conflicts[i].Dimension] < rank[conflicts[j].Dimension]
		}
		return conflicts[i].Subject < conflicts[j].Subject
	})
}
