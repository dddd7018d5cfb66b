// internal/service/matches.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/manaclash/internal/cache"
	"github.com/jason-s-yu/manaclash/internal/game"
	"github.com/jason-s-yu/manaclash/internal/models"
	"github.com/jason-s-yu/manaclash/internal/store"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxRetries bounds the read-compute-commit loop of one action.
const DefaultMaxRetries = 8

// ErrContention is returned when every commit attempt of an action lost the
// race against another writer.
var ErrContention = errors.New("match contention")

// Result is what a caller sees for one action. A rejection is a Result with
// Applied false and a Reason, never an error.
type Result struct {
	Applied bool
	Reason  game.Reason
	Match   models.MatchState
	Action  *models.GameAction
}

// Catalog is the read-only card lookup the service needs.
type Catalog interface {
	Card(id string) (models.CardDefinition, bool)
	SettingsDefaults() models.GameSettings
}

// Notifier is told about every committed snapshot.
type Notifier interface {
	MatchUpdated(m models.MatchState)
}

// ActionSink receives the audit record of every committed action.
type ActionSink interface {
	PublishMatchAction(ctx context.Context, record cache.MatchActionRecord) error
}

// Matches runs match actions against a MatchStore with optimistic concurrency.
type Matches struct {
	store      store.MatchStore
	engine     *game.Engine
	catalog    Catalog
	logger     *logrus.Logger
	tracer     trace.Tracer
	maxRetries int
	notifier   Notifier
	sink       ActionSink
	now        func() time.Time
	newCode    func() (string, error)
}

// Option configures a Matches service.
type Option func(*Matches)

// WithMaxRetries sets how many commit attempts one action gets.
func WithMaxRetries(n int) Option {
	return func(s *Matches) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Matches) { s.notifier = n }
}

func WithActionSink(sink ActionSink) Option {
	return func(s *Matches) { s.sink = sink }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Matches) { s.now = now }
}

// WithCodeGenerator replaces the join code generator.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *Matches) { s.newCode = gen }
}

// WithResolver swaps the effect resolver, e.g. to register extra kinds.
func WithResolver(r *game.Resolver) Option {
	return func(s *Matches) { s.engine = game.NewEngine(r, s.catalog.SettingsDefaults()) }
}

func New(st store.MatchStore, catalog Catalog, logger *logrus.Logger, opts ...Option) *Matches {
	s := &Matches{
		store:      st,
		engine:     game.NewEngine(nil, catalog.SettingsDefaults()),
		catalog:    catalog,
		logger:     logger,
		tracer:     otel.Tracer("github.com/jason-s-yu/manaclash/internal/service"),
		maxRetries: DefaultMaxRetries,
		now:        time.Now,
		newCode:    NewJoinCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine exposes the transition engine the service runs.
func (s *Matches) Engine() *game.Engine {
	return s.engine
}

// ApplyCardEffect plays cardID from actorID onto targetID.
func (s *Matches) ApplyCardEffect(ctx context.Context, matchID, actorID, targetID uuid.UUID, cardID string) (Result, error) {
	a := game.Action{Kind: game.ActionPlayCard, ActorID: actorID, TargetID: targetID, At: s.now()}
	if def, ok := s.catalog.Card(cardID); ok {
		a.Card = &def
	}
	ctx, span := s.tracer.Start(ctx, "match.apply_card", trace.WithAttributes(
		attribute.String("card.id", cardID),
		attribute.String("target.id", targetID.String()),
	))
	defer span.End()
	return s.transact(ctx, span, matchID, a, s.engine.ApplyCard)
}

// RestoreMana lets actorID drink mana whatever the turn.
func (s *Matches) RestoreMana(ctx context.Context, matchID, actorID uuid.UUID) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "match.restore_mana")
	defer span.End()
	a := game.Action{Kind: game.ActionRestoreMana, ActorID: actorID, At: s.now()}
	return s.transact(ctx, span, matchID, a, s.engine.RestoreMana)
}

// EndTurn passes the turn on if actorID holds it.
func (s *Matches) EndTurn(ctx context.Context, matchID, actorID uuid.UUID) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "match.end_turn")
	defer span.End()
	a := game.Action{Kind: game.ActionEndTurn, ActorID: actorID, At: s.now()}
	return s.transact(ctx, span, matchID, a, s.engine.EndTurn)
}

// StartMatch moves a waiting match into play on the leader's request.
func (s *Matches) StartMatch(ctx context.Context, matchID, actorID uuid.UUID) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "match.start")
	defer span.End()
	a := game.Action{Kind: game.ActionStart, ActorID: actorID, At: s.now()}
	return s.transact(ctx, span, matchID, a, s.engine.Start)
}

// JoinMatch seats p in the waiting match with the given join code.
func (s *Matches) JoinMatch(ctx context.Context, code string, p models.PlayerState) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "match.join")
	defer span.End()

	m, err := s.store.ReadMatchByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		span.SetAttributes(attribute.String("match.reason", string(game.ReasonMatchNotFound)))
		return Result{Reason: game.ReasonMatchNotFound}, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read match by code")
		return Result{}, fmt.Errorf("read match by code %q: %w", code, err)
	}

	a := game.Action{Kind: game.ActionJoin, ActorID: p.ID, At: s.now()}
	return s.transact(ctx, span, m.ID, a, func(m models.MatchState, a game.Action) game.Outcome {
		return s.engine.Join(m, p, a.At)
	})
}

// CreateMatch stores a new waiting match led by leader. A join code clash
// draws a new code.
func (s *Matches) CreateMatch(ctx context.Context, leader models.PlayerState, overrides *models.SettingsOverrides) (models.MatchState, error) {
	ctx, span := s.tracer.Start(ctx, "match.create")
	defer span.End()

	id := uuid.New()
	span.SetAttributes(attribute.String("match.id", id.String()))
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return models.MatchState{}, fmt.Errorf("generate join code: %w", err)
		}
		m := s.engine.NewMatch(id, code, leader, overrides, s.now())
		created, err := s.store.CreateMatch(ctx, m)
		if errors.Is(err, store.ErrConflict) {
			s.logger.WithFields(logrus.Fields{"match": id, "code": code}).Debug("join code taken, retrying")
			continue
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "create match")
			s.logger.WithError(err).WithField("match", id).Error("failed to create match")
			return models.MatchState{}, fmt.Errorf("create match: %w", err)
		}
		s.logger.WithFields(logrus.Fields{"match": id, "code": created.Code, "leader": leader.ID}).Info("match created")
		return created, nil
	}
	return models.MatchState{}, fmt.Errorf("%w: no free join code after %d attempts", ErrContention, s.maxRetries)
}

// GetMatch reads the latest committed snapshot.
func (s *Matches) GetMatch(ctx context.Context, matchID uuid.UUID) (models.MatchState, error) {
	m, err := s.store.ReadMatch(ctx, matchID)
	if err != nil {
		return models.MatchState{}, fmt.Errorf("read match %s: %w", matchID, err)
	}
	return m, nil
}

type transition func(models.MatchState, game.Action) game.Outcome

// transact is the optimistic loop: read, compute, commit if the version is
// unchanged, otherwise start over from a fresh read. a is fixed before the
// loop so every attempt computes from identical input.
func (s *Matches) transact(ctx context.Context, span trace.Span, matchID uuid.UUID, a game.Action, apply transition) (Result, error) {
	log := s.logger.WithFields(logrus.Fields{
		"match":  matchID,
		"actor":  a.ActorID,
		"action": a.Kind,
	})
	span.SetAttributes(
		attribute.String("match.id", matchID.String()),
		attribute.String("actor.id", a.ActorID.String()),
		attribute.String("match.action", string(a.Kind)),
	)

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		span.SetAttributes(attribute.Int("match.attempts", attempt))

		m, err := s.store.ReadMatch(ctx, matchID)
		if errors.Is(err, store.ErrNotFound) {
			return s.reject(log, span, Result{Reason: game.ReasonMatchNotFound}), nil
		}
		if err != nil {
			return Result{}, s.fail(log, span, fmt.Errorf("read match %s: %w", matchID, err))
		}

		out := apply(m, a)
		if !out.Applied {
			return s.reject(log, span, Result{Reason: out.Reason, Match: m}), nil
		}

		committed, err := s.store.CommitMatch(ctx, m.Version, out.Match)
		if errors.Is(err, store.ErrConflict) {
			log.WithField("attempt", attempt).Debug("commit conflict, retrying")
			continue
		}
		if errors.Is(err, store.ErrNotFound) {
			return s.reject(log, span, Result{Reason: game.ReasonMatchNotFound}), nil
		}
		if err != nil {
			return Result{}, s.fail(log, span, fmt.Errorf("commit match %s: %w", matchID, err))
		}

		s.committed(ctx, log, committed, out.Action)
		span.SetAttributes(attribute.Bool("match.applied", true), attribute.Int64("match.version", committed.Version))
		return Result{Applied: true, Match: committed, Action: out.Action}, nil
	}

	err := fmt.Errorf("%w: match %s after %d attempts", ErrContention, matchID, s.maxRetries)
	return Result{}, s.fail(log, span, err)
}

func (s *Matches) reject(log *logrus.Entry, span trace.Span, r Result) Result {
	log.WithField("reason", r.Reason).Debug("action rejected")
	span.SetAttributes(attribute.Bool("match.applied", false), attribute.String("match.reason", string(r.Reason)))
	return r
}

func (s *Matches) fail(log *logrus.Entry, span trace.Span, err error) error {
	log.WithError(err).Error("action failed")
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// committed fans a committed snapshot out. Publishing the audit record is
// best effort; the commit already happened.
func (s *Matches) committed(ctx context.Context, log *logrus.Entry, m models.MatchState, action *models.GameAction) {
	log.WithFields(logrus.Fields{"version": m.Version, "status": m.Status}).Debug("action committed")
	if m.Status == models.StatusFinished {
		log.WithField("winner", m.WinnerID).Info("match finished")
	}
	if s.notifier != nil {
		s.notifier.MatchUpdated(m)
	}
	if s.sink != nil && action != nil {
		record := cache.MatchActionRecord{MatchID: m.ID, Version: m.Version, Action: *action}
		if err := s.sink.PublishMatchAction(ctx, record); err != nil {
			log.WithError(err).Warn("failed to publish match action")
		}
	}
}
