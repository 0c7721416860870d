// Package dashboard computes the personal, supervisor and admin aggregates
// and serves them through the dashboard cache.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"electionhub/internal/dashboard/cache"
	"electionhub/internal/election/models"
	principal "electionhub/internal/principal/models"
	"electionhub/internal/realtime/events"
	id "electionhub/pkg/domain"
	dErrors "electionhub/pkg/domain-errors"
	"electionhub/pkg/requestcontext"
)

// fingerprint versions the document layout so a deploy that changes it never
// serves documents rendered by the previous one.
const fingerprint = "v1"

// Source reads the election records the aggregates are built from.
type Source interface {
	ListGuarantees(ctx context.Context, owners ...id.PrincipalID) ([]models.Guarantee, error)
	AttendedElectors(ctx context.Context) (map[id.ElectorID]struct{}, error)
}

// Notifier announces explicit dashboard invalidations to connected clients.
type Notifier interface {
	DashboardInvalidated(ctx context.Context, scope events.Scope)
}

// Service serves cached dashboard documents.
type Service struct {
	source   Source
	cache    cache.Cache
	notifier Notifier
	ttl      time.Duration
	logger   *slog.Logger
	group    singleflight.Group
}

func NewService(source Source, c cache.Cache, notifier Notifier, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		source:   source,
		cache:    c,
		notifier: notifier,
		ttl:      ttl,
		logger:   logger,
	}
}

// Personal returns the caller's own guarantee and attendance figures.
func (s *Service) Personal(ctx context.Context, actor *principal.Principal) (cache.Document, error) {
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	key := cache.Key{Scope: events.ScopePersonal, PrincipalID: &actor.ID, Fingerprint: fingerprint}
	return s.serve(ctx, key, func(ctx context.Context) (any, error) {
		sum, err := s.summarize(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		return personalDocument{Summary: sum, GeneratedAt: events.FormatTimestamp(requestcontext.Now(ctx))}, nil
	})
}

// Supervisor returns figures for the caller and each supervisee.
func (s *Service) Supervisor(ctx context.Context, actor *principal.Principal) (cache.Document, error) {
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if actor.Role != principal.RoleSupervisor && !actor.Role.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "supervisor role required")
	}
	team := append([]id.PrincipalID{actor.ID}, actor.Supervisees...)
	key := cache.Key{Scope: events.ScopeSupervisor, PrincipalID: &actor.ID, Fingerprint: fingerprint}
	return s.serve(ctx, key, func(ctx context.Context) (any, error) {
		return s.teamSummary(ctx, actor.ID, team)
	})
}

// Admin returns election-wide figures broken down by committee.
func (s *Service) Admin(ctx context.Context, actor *principal.Principal) (cache.Document, error) {
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !actor.Role.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	key := cache.Key{Scope: events.ScopeAdmin, Fingerprint: fingerprint}
	return s.serve(ctx, key, s.overview)
}

// Invalidate drops dashboards of scope and notifies connected clients.
func (s *Service) Invalidate(ctx context.Context, actor *principal.Principal, scope events.Scope) error {
	if actor == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !actor.Role.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	s.notifier.DashboardInvalidated(ctx, scope)
	return nil
}

// serve reads key from the cache and computes it on a miss. Concurrent misses
// for the same key share one computation. The document is cached under the
// generation read before computing, so an invalidation that lands during the
// computation wins. Cache failures are logged and never fail the request.
func (s *Service) serve(ctx context.Context, key cache.Key, compute func(context.Context) (any, error)) (cache.Document, error) {
	doc, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "dashboard cache read failed",
			"key", key.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	if ok {
		return doc, nil
	}

	v, err, _ := s.group.Do(key.String(), func() (any, error) {
		gen, cacheErr := s.cache.Generation(ctx, key.Scope)
		body, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("render dashboard: %w", err)
		}
		if cacheErr == nil {
			cacheErr = s.cache.Put(ctx, key, b, s.ttl, gen)
		}
		if cacheErr != nil {
			s.logger.WarnContext(ctx, "dashboard cache write failed",
				"key", key.String(),
				"request_id", requestcontext.RequestID(ctx),
				"error", cacheErr,
			)
		}
		return cache.Document(b), nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute dashboard")
	}
	return v.(cache.Document), nil
}

// Summary counts guarantees by status and how many guaranteed electors voted.
type Summary struct {
	PrincipalID    id.PrincipalID `json:"principal_id,omitempty"`
	Guarantees     int            `json:"guarantees"`
	ByStatus       map[string]int `json:"by_status"`
	Attended       int            `json:"attended"`
	AttendanceRate float64        `json:"attendance_rate"`
}

type personalDocument struct {
	Summary
	GeneratedAt string `json:"generated_at"`
}

type teamDocument struct {
	SupervisorID id.PrincipalID `json:"supervisor_id"`
	Totals       Summary        `json:"totals"`
	Members      []Summary      `json:"members"`
	GeneratedAt  string         `json:"generated_at"`
}

type committeeSummary struct {
	CommitteeCode string `json:"committee_code"`
	Summary
}

type adminDocument struct {
	Totals      Summary            `json:"totals"`
	Committees  []committeeSummary `json:"committees"`
	GeneratedAt string             `json:"generated_at"`
}

func (s *Service) summarize(ctx context.Context, owner id.PrincipalID) (Summary, error) {
	guarantees, err := s.source.ListGuarantees(ctx, owner)
	if err != nil {
		return Summary{}, err
	}
	attended, err := s.source.AttendedElectors(ctx)
	if err != nil {
		return Summary{}, err
	}
	sum := tally(guarantees, attended)
	sum.PrincipalID = owner
	return sum, nil
}

func (s *Service) teamSummary(ctx context.Context, supervisor id.PrincipalID, team []id.PrincipalID) (teamDocument, error) {
	guarantees, err := s.source.ListGuarantees(ctx, team...)
	if err != nil {
		return teamDocument{}, err
	}
	attended, err := s.source.AttendedElectors(ctx)
	if err != nil {
		return teamDocument{}, err
	}
	byOwner := make(map[id.PrincipalID][]models.Guarantee, len(team))
	for _, g := range guarantees {
		byOwner[g.OwnerID] = append(byOwner[g.OwnerID], g)
	}
	doc := teamDocument{
		SupervisorID: supervisor,
		Totals:       tally(guarantees, attended),
		Members:      make([]Summary, 0, len(team)),
		GeneratedAt:  events.FormatTimestamp(requestcontext.Now(ctx)),
	}
	for _, member := range team {
		sum := tally(byOwner[member], attended)
		sum.PrincipalID = member
		doc.Members = append(doc.Members, sum)
	}
	return doc, nil
}

func (s *Service) overview(ctx context.Context) (any, error) {
	guarantees, err := s.source.ListGuarantees(ctx)
	if err != nil {
		return nil, err
	}
	attended, err := s.source.AttendedElectors(ctx)
	if err != nil {
		return nil, err
	}
	byCommittee := make(map[string][]models.Guarantee)
	for _, g := range guarantees {
		byCommittee[g.CommitteeCode] = append(byCommittee[g.CommitteeCode], g)
	}
	doc := adminDocument{
		Totals:      tally(guarantees, attended),
		Committees:  make([]committeeSummary, 0, len(byCommittee)),
		GeneratedAt: events.FormatTimestamp(requestcontext.Now(ctx)),
	}
	for code, gs := range byCommittee {
		doc.Committees = append(doc.Committees, committeeSummary{CommitteeCode: code, Summary: tally(gs, attended)})
	}
	slices.SortFunc(doc.Committees, func(a, b committeeSummary) int {
		return strings.Compare(a.CommitteeCode, b.CommitteeCode)
	})
	return doc, nil
}

func tally(guarantees []models.Guarantee, attended map[id.ElectorID]struct{}) Summary {
	sum := Summary{
		ByStatus: map[string]int{
			string(models.GuaranteeStrong):  0,
			string(models.GuaranteeMedium):  0,
			string(models.GuaranteeWeak):    0,
			string(models.GuaranteePending): 0,
		},
	}
	for _, g := range guarantees {
		sum.Guarantees++
		sum.ByStatus[string(g.Status)]++
		if _, ok := attended[g.ElectorID]; ok {
			sum.Attended++
		}
	}
	if sum.Guarantees > 0 {
		sum.AttendanceRate = float64(sum.Attended) / float64(sum.Guarantees)
	}
	return sum
}
