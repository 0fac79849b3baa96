package personality

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sandevgo/personas/internal/core"
	"github.com/sandevgo/personas/pkg/log"
	"golang.org/x/sync/errgroup"
)

// Service merges the relational and file stores into one personality view
// and routes component updates to the store that owns them.
type Service struct {
	coreRepo   core.CoreRepository
	detailRepo core.DetailRepository
	now        func() time.Time
}

type Option func(*Service)

// WithClock overrides the clock used for LoadedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(coreRepo core.CoreRepository, detailRepo core.DetailRepository, opts ...Option) *Service {
	s := &Service{
		coreRepo:   coreRepo,
		detailRepo: detailRepo,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the three components concurrently and merges them. It never
// fails: every source that could not answer contributes its empty default,
// and the outcome is recorded in Personality.Status.
func (s *Service) Load(ctx context.Context, agentName string) *core.Personality {
	logger := log.FromCtx(ctx)

	var (
		profile  core.CoreProfile
		detailed core.DetailedProfile
		rels     []core.Relationship
		status   core.LoadStatus
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		profile, err = s.coreRepo.FetchCore(ctx, agentName)
		status.Core = report(ctx, agentName, core.ComponentCore, err)
		if err != nil {
			profile = core.CoreProfile{}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		detailed, err = s.detailRepo.FetchDetailed(ctx, agentName)
		status.Detailed = report(ctx, agentName, core.ComponentDetailed, err)
		return nil
	})
	g.Go(func() error {
		var err error
		rels, err = s.coreRepo.FetchRelationships(ctx, agentName)
		status.Relationships = report(ctx, agentName, core.ComponentRelationships, err)
		return nil
	})
	_ = g.Wait()

	p := merge(profile, detailed, rels)
	p.LoadedAt = s.now()
	p.Status = status

	logger.Debug().
		Str("agent", agentName).
		Str("core", string(status.Core)).
		Str("detailed", string(status.Detailed)).
		Str("relationships", string(status.Relationships)).
		Msg("personality loaded")

	return p
}

func merge(profile core.CoreProfile, detailed core.DetailedProfile, rels []core.Relationship) *core.Personality {
	p := &core.Personality{
		Core:               profile,
		Traits:             detailed.Traits,
		ResponsePatterns:   detailed.ResponsePatterns,
		Relationships:      rels,
		LearningHistory:    detailed.LearningHistory,
		ContextualMemories: detailed.ContextualMemories,
	}
	if p.Traits == nil {
		p.Traits = map[string]float64{}
	}
	if p.ResponsePatterns == nil {
		p.ResponsePatterns = map[string]string{}
	}
	if p.Relationships == nil {
		p.Relationships = []core.Relationship{}
	}
	if p.LearningHistory == nil {
		p.LearningHistory = []json.RawMessage{}
	}
	if p.ContextualMemories == nil {
		p.ContextualMemories = []json.RawMessage{}
	}
	return p
}

// report logs a failed fetch and returns its classification. Not-found is
// an expected outcome and stays at debug level.
func report(ctx context.Context, agentName, component string, err error) core.Reason {
	reason := core.ReasonOf(err)
	switch reason {
	case core.ReasonOK:
	case core.ReasonNotFound:
		log.FromCtx(ctx).Debug().Str("agent", agentName).Str("component", component).Msg("no data")
	default:
		log.FromCtx(ctx).Warn().Err(err).
			Str("agent", agentName).
			Str("component", component).
			Str("reason", string(reason)).
			Msg("failed to load personality component")
	}
	return reason
}

// UpdateComponent writes data to the store owning component. The component
// name and payload are validated before any I/O happens.
func (s *Service) UpdateComponent(ctx context.Context, agentName, component string, data map[string]any) error {
	switch component {
	case core.ComponentCore:
		profile, err := decodeCore(data)
		if err != nil {
			return err
		}
		return s.UpdateCore(ctx, agentName, profile)

	case core.ComponentDetailed:
		patch, err := encodePatch(data)
		if err != nil {
			return err
		}
		return s.UpdateDetailed(ctx, agentName, patch)

	case core.ComponentRelationships:
		return fmt.Errorf("update %s: %w", component, core.ErrNotImplemented)

	default:
		return fmt.Errorf("%q: %w", component, core.ErrUnknownComponent)
	}
}

func (s *Service) UpdateCore(ctx context.Context, agentName string, profile core.CoreProfile) error {
	if err := s.coreRepo.WriteCore(ctx, agentName, profile); err != nil {
		return fmt.Errorf("failed to update core personality for %s: %w", agentName, err)
	}
	log.FromCtx(ctx).Info().Str("agent", agentName).Msg("core personality updated")
	return nil
}

func (s *Service) UpdateDetailed(ctx context.Context, agentName string, patch map[string]json.RawMessage) error {
	if err := s.detailRepo.WriteDetailed(ctx, agentName, patch); err != nil {
		return fmt.Errorf("failed to update detailed personality for %s: %w", agentName, err)
	}
	log.FromCtx(ctx).Info().Str("agent", agentName).Int("keys", len(patch)).Msg("detailed personality updated")
	return nil
}

// decodeCore maps the loose update payload onto CoreProfile. Absent keys
// become zero values, as the update overwrites every mutable column.
func decodeCore(data map[string]any) (core.CoreProfile, error) {
	var profile core.CoreProfile

	raw, err := json.Marshal(data)
	if err != nil {
		return profile, fmt.Errorf("core data: %w: %v", core.ErrInvalidData, err)
	}
	if err := json.Unmarshal(raw, &profile); err != nil {
		return profile, fmt.Errorf("core data: %w: %v", core.ErrInvalidData, err)
	}
	if profile.ActivityLevel < 0 || profile.ActivityLevel > 1 {
		return profile, fmt.Errorf("core data: %w: activity_level %v outside [0, 1]", core.ErrInvalidData, profile.ActivityLevel)
	}
	return profile, nil
}

func encodePatch(data map[string]any) (map[string]json.RawMessage, error) {
	patch := make(map[string]json.RawMessage, len(data))
	for key, value := range data {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("detailed data key %q: %w: %v", key, core.ErrInvalidData, err)
		}
		patch[key] = raw
	}
	return patch, nil
}
