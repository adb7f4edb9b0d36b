package detection

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/falconx-app/FalconX/app/models"
	"github.com/falconx-app/FalconX/app/repository"
	"github.com/falconx-app/FalconX/internal/pkg/events"
	"github.com/falconx-app/FalconX/internal/pkg/metering"
)

// Detection statuses returned to the reporting client.
const (
	StatusAuthorized = "authorized"
	StatusDetected   = "detected"
)

// ErrInvalidReport is returned when a normalized report carries no usable domain.
var ErrInvalidReport = errors.New("detection report has no domain")

// Report is the single internal request type all public endpoints normalize
// into, regardless of which payload generation the snippet sent.
type Report struct {
	UserID    string
	Domain    string
	PageURL   string
	Referrer  string
	UserAgent string
	IPAddress string
	PageStats models.PageStats
}

// Result is the outcome of one detection ping.
type Result struct {
	Status         string
	Domain         string
	OriginalDomain string
	CloneID        *uint
	NewClone       bool
	Usage          *metering.Usage
}

// EventPublisher is the best-effort sink for new-clone events.
type EventPublisher interface {
	PublishCloneDetected(ctx context.Context, event events.CloneDetected) error
}

// Engine is the clone-detection and action-decision pipeline: authorization
// matching, idempotent clone upsert, usage metering and action selection in
// one place. HTTP handlers stay thin adapters over it.
//
// Store failures off the critical path (clone upsert, log append, metering,
// event publish) are logged and swallowed so the reporting client always gets
// a response; the authorization lookup fails closed instead.
type Engine struct {
	domains   repository.AllowedDomainRepository
	clones    repository.CloneRepository
	meter     *metering.Meter
	selector  *Selector
	publisher EventPublisher
	now       func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithPublisher attaches the best-effort event publisher.
func WithPublisher(p EventPublisher) EngineOption {
	return func(e *Engine) { e.publisher = p }
}

// WithEngineClock injects a clock for tests.
func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates the detection engine.
func NewEngine(
	domains repository.AllowedDomainRepository,
	clones repository.CloneRepository,
	meter *metering.Meter,
	selector *Selector,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		domains:  domains,
		clones:   clones,
		meter:    meter,
		selector: selector,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessDetection runs one detection ping through the pipeline.
func (e *Engine) ProcessDetection(ctx context.Context, report Report) (*Result, error) {
	domain := NormalizeDomain(report.Domain)
	if domain == "" {
		return nil, ErrInvalidReport
	}

	allowed := e.allowedDomains(report.UserID)
	if IsAuthorized(allowed, domain) {
		return &Result{Status: StatusAuthorized, Domain: domain}, nil
	}

	original := models.OriginalDomainUnknown
	if len(allowed) > 0 {
		original = allowed[0]
	}

	res := &Result{Status: StatusDetected, Domain: domain, OriginalDomain: original}

	cloneID, created, err := e.upsertClone(report.UserID, domain, original, report.PageStats)
	if err != nil {
		// Best effort: the registry failure must never break the
		// countermeasure experience, only observability.
		log.Printf("detection: clone upsert failed for user %s domain %s: %v", report.UserID, domain, err)
		return res, nil
	}
	res.CloneID = &cloneID
	res.NewClone = created

	if created {
		if usage, err := e.meter.RecordNewClone(report.UserID); err != nil {
			log.Printf("detection: usage metering failed for user %s: %v", report.UserID, err)
		} else {
			res.Usage = usage
		}

		if e.publisher != nil {
			event := events.CloneDetected{
				UserID:         report.UserID,
				CloneID:        cloneID,
				CloneDomain:    domain,
				OriginalDomain: original,
				PageURL:        report.PageURL,
				Referrer:       report.Referrer,
				DetectedAt:     e.now().UTC().Format(time.RFC3339),
			}
			if err := e.publisher.PublishCloneDetected(ctx, event); err != nil {
				log.Printf("detection: event publish failed for clone %d: %v", cloneID, err)
			}
		}
	}

	entry := &models.DetectionLog{
		UserID:    report.UserID,
		CloneID:   &cloneID,
		IPAddress: report.IPAddress,
		UserAgent: report.UserAgent,
		Referrer:  report.Referrer,
		PageURL:   report.PageURL,
	}
	if err := e.clones.AppendLog(entry); err != nil {
		log.Printf("detection: log append failed for clone %d: %v", cloneID, err)
	}

	return res, nil
}

// ResolveAction decides which countermeasure instruction the reporting client
// should execute for this ping. Authorized domains never receive one.
func (e *Engine) ResolveAction(ctx context.Context, report Report) (Decision, error) {
	domain := NormalizeDomain(report.Domain)
	if domain == "" {
		return Decision{Action: ActionNone}, ErrInvalidReport
	}

	if IsAuthorized(e.allowedDomains(report.UserID), domain) {
		return Decision{Action: ActionNone}, nil
	}

	return e.selector.Select(report.UserID, report.PageURL, report.Referrer)
}

// allowedDomains loads the whitelist, failing closed on lookup errors.
func (e *Engine) allowedDomains(userID string) []string {
	allowed, err := e.domains.ListActiveDomains(userID)
	if err != nil {
		log.Printf("detection: allow-list lookup failed for user %s: %v", userID, err)
		return nil
	}
	return allowed
}

// upsertClone records one detection against the single (user, domain) row.
// Two concurrent first detections both reach Create; the unique key turns the
// loser into a RecordHit on the winner's row.
func (e *Engine) upsertClone(userID, domain, original string, stats models.PageStats) (uint, bool, error) {
	now := e.now()

	existing, err := e.clones.GetByUserAndDomain(userID, domain)
	if err == nil {
		if err := e.clones.RecordHit(existing.ID, now, stats); err != nil {
			return 0, false, err
		}
		return existing.ID, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, err
	}

	clone := &models.DetectedClone{
		UserID:         userID,
		CloneDomain:    domain,
		OriginalDomain: original,
		DetectionCount: 1,
		FirstDetected:  now,
		LastSeen:       now,
		IsActive:       true,
		PageStats:      stats,
	}
	err = e.clones.Create(clone)
	if err == nil {
		return clone.ID, true, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, err := e.clones.GetByUserAndDomain(userID, domain)
		if err != nil {
			return 0, false, err
		}
		if err := e.clones.RecordHit(existing.ID, now, stats); err != nil {
			return 0, false, err
		}
		return existing.ID, false, nil
	}
	return 0, false, err
}
