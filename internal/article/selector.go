package article

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
)

// Source yields headline candidates, newest first.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Candidate, error)
}

// HistoryStore persists the history window. Load on a missing store returns
// an empty history and no error.
type HistoryStore interface {
	Load(ctx context.Context) (History, error)
	Save(ctx context.Context, h History) error
}

// Origin says where a selected candidate came from.
type Origin string

const (
	OriginPrimary   Origin = "primary"
	OriginSecondary Origin = "secondary"
	OriginBackup    Origin = "backup"
)

// Recorded reports whether picks from this origin go into the history.
func (o Origin) Recorded() bool {
	return o == OriginPrimary || o == OriginSecondary
}

type Config struct {
	HistoryLimit int // links remembered; DefaultHistoryLimit when zero
	MaxAttempts  int // feed fetch rounds before falling back; 1 when zero
}

// Selector chooses one unused candidate per post. It is the only writer of
// the history store and is not safe for concurrent runs.
type Selector struct {
	primary   Source
	secondary Source
	store     HistoryStore
	rng       *rand.Rand
	cfg       Config
	logger    *slog.Logger
}

// NewSelector wires the two feeds, the history store and the random source
// used for backup picks.
func NewSelector(primary, secondary Source, store HistoryStore, rng *rand.Rand, cfg Config, logger *slog.Logger) *Selector {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Selector{
		primary:   primary,
		secondary: secondary,
		store:     store,
		rng:       rng,
		cfg:       cfg,
		logger:    logger,
	}
}

// eligible reverses a newest-first list and keeps titles shorter than maxTitleLen.
func eligible(items []Candidate, maxTitleLen int) []Candidate {
	out := make([]Candidate, 0, len(items))
	for _, c := range slices.Backward(items) {
		if c.TitleLen() < maxTitleLen {
			out = append(out, c)
		}
	}
	return out
}

func firstUnseen(items []Candidate, history History) (Candidate, bool) {
	for _, c := range items {
		if !history.Contains(c) {
			return c, true
		}
	}
	return Candidate{}, false
}

// Pick scans the primary list then the secondary one, oldest first, for a
// candidate that fits the budget and is not in history. Both lists are
// newest first, as the feeds return them.
func Pick(maxTitleLen int, history History, primary, secondary []Candidate) (Candidate, Origin, bool) {
	if c, ok := firstUnseen(eligible(primary, maxTitleLen), history); ok {
		return c, OriginPrimary, true
	}
	if c, ok := firstUnseen(eligible(secondary, maxTitleLen), history); ok {
		return c, OriginSecondary, true
	}
	return Candidate{}, "", false
}

// Choose returns the candidate for a post and the history that should be
// stored after posting it. Nothing is persisted. Backup picks return history
// unchanged. Feed errors are returned as is.
func (s *Selector) Choose(ctx context.Context, maxTitleLen int, history History) (Candidate, History, Origin, error) {
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		primary, err := s.primary.Fetch(ctx)
		if err != nil {
			return Candidate{}, history, "", fmt.Errorf("fetch %s: %w", s.primary.Name(), err)
		}
		secondary, err := s.secondary.Fetch(ctx)
		if err != nil {
			return Candidate{}, history, "", fmt.Errorf("fetch %s: %w", s.secondary.Name(), err)
		}

		if c, origin, ok := Pick(maxTitleLen, history, primary, secondary); ok {
			s.logger.Debug("article selected", "origin", origin, "title", c.Title, "attempt", attempt)
			return c, history.Record(c, s.cfg.HistoryLimit), origin, nil
		}

		s.logger.Info("no unused article in feeds",
			"attempt", attempt,
			"max_attempts", s.cfg.MaxAttempts,
			"primary", len(primary),
			"secondary", len(secondary),
			"max_title_len", maxTitleLen)
	}

	c := pickBackup(s.rng)
	s.logger.Info("using backup article", "title", c.Title)
	return c, history, OriginBackup, nil
}

// Select loads the history, chooses a candidate and saves the updated
// history when the candidate came from a feed. An unreadable history is
// treated as empty.
func (s *Selector) Select(ctx context.Context, maxTitleLen int) (Candidate, Origin, error) {
	history, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("history unavailable, starting empty", "error", err)
		history = nil
	}

	c, next, origin, err := s.Choose(ctx, maxTitleLen, history)
	if err != nil {
		return Candidate{}, "", err
	}

	if origin.Recorded() {
		if err := s.store.Save(ctx, next); err != nil {
			return Candidate{}, "", fmt.Errorf("save history: %w", err)
		}
		s.logger.Debug("history saved", "size", len(next))
	}
	return c, origin, nil
}
