package metering

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/falconx-app/FalconX/app/models"
	"github.com/falconx-app/FalconX/app/repository"
)

// Usage is the metered state reported to callers.
type Usage struct {
	PlanSlug             string    `json:"plan_slug"`
	PlanName             string    `json:"plan_name"`
	CanDetectMore        bool      `json:"can_detect_more"`
	CurrentCount         int       `json:"current_count"`
	Limit                int       `json:"limit"`
	Remaining            int       `json:"remaining"`
	ExtraUsed            int       `json:"extra_used"`
	BlockedClones        int       `json:"blocked_clones"`
	ExtraClonePriceCents int       `json:"extra_clone_price_cents"`
	DomainLimit          int       `json:"domain_limit"`
	ResetDate            time.Time `json:"reset_date"`
}

// Meter tracks per-user monthly detection counters against the plan quota.
// Resets are lazy: whichever request first notices an expired reset date
// performs the reset, there is no background scheduler.
type Meter struct {
	subs repository.SubscriptionRepository
	now  func() time.Time
}

// Option configures a Meter.
type Option func(*Meter)

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Meter) { m.now = now }
}

// NewMeter creates a usage meter.
func NewMeter(subs repository.SubscriptionRepository, opts ...Option) *Meter {
	m := &Meter{subs: subs, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CheckLimits returns the user's current usage, lazily creating a free
// subscription and applying the monthly reset when due.
func (m *Meter) CheckLimits(userID string) (*Usage, error) {
	sub, err := m.activeSubscription(userID)
	if err != nil {
		return nil, err
	}
	return usageFrom(sub), nil
}

// RecordNewClone meters one newly created clone record. Callers must invoke
// this once per insert, never per ping: repeated pings against a known clone
// do not touch the quota. Free plans stop counting at the limit and track the
// overflow as blocked; paid plans bill extras instead and are never refused.
func (m *Meter) RecordNewClone(userID string) (*Usage, error) {
	sub, err := m.activeSubscription(userID)
	if err != nil {
		return nil, err
	}

	switch {
	case sub.CurrentCloneCount < sub.CloneLimit:
		sub.CurrentCloneCount++
	case sub.Plan.IsFree():
		sub.BlockedClones++
	default:
		sub.ExtraClonesUsed++
	}

	if err := m.subs.Update(sub); err != nil {
		return nil, err
	}
	return usageFrom(sub), nil
}

// activeSubscription loads the user's active subscription, creating the
// default free one when none exists and performing the lazy monthly reset.
func (m *Meter) activeSubscription(userID string) (*models.Subscription, error) {
	sub, err := m.subs.GetActiveByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sub, err = m.createDefault(userID)
	}
	if err != nil {
		return nil, err
	}

	now := m.now()
	if !now.Before(sub.ResetDate) {
		sub.CurrentCloneCount = 0
		sub.ExtraClonesUsed = 0
		sub.BlockedClones = 0
		// Advance by calendar months; the loop catches up subscriptions that
		// were dormant across several periods.
		for !sub.ResetDate.After(now) {
			sub.ResetDate = sub.ResetDate.AddDate(0, 1, 0)
		}
		if err := m.subs.Update(sub); err != nil {
			return nil, err
		}
	}

	return sub, nil
}

func (m *Meter) createDefault(userID string) (*models.Subscription, error) {
	plan, err := m.subs.GetPlanBySlug(models.PlanFree)
	if err != nil {
		return nil, err
	}
	sub := &models.Subscription{
		UserID:     userID,
		PlanID:     plan.ID,
		Plan:       *plan,
		Status:     models.SubscriptionStatusActive,
		CloneLimit: plan.CloneLimit,
		ResetDate:  m.now().AddDate(0, 1, 0),
	}
	if err := m.subs.Create(sub); err != nil {
		// A concurrent request may have created it first; fall back to the read.
		if existing, getErr := m.subs.GetActiveByUserID(userID); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return sub, nil
}

func usageFrom(sub *models.Subscription) *Usage {
	remaining := sub.CloneLimit - sub.CurrentCloneCount
	if remaining < 0 {
		remaining = 0
	}
	return &Usage{
		PlanSlug:             sub.Plan.Slug,
		PlanName:             sub.Plan.Name,
		CanDetectMore:        !sub.Plan.IsFree() || sub.CurrentCloneCount < sub.CloneLimit,
		CurrentCount:         sub.CurrentCloneCount,
		Limit:                sub.CloneLimit,
		Remaining:            remaining,
		ExtraUsed:            sub.ExtraClonesUsed,
		BlockedClones:        sub.BlockedClones,
		ExtraClonePriceCents: sub.Plan.ExtraClonePriceCents,
		DomainLimit:          sub.Plan.DomainLimit,
		ResetDate:            sub.ResetDate,
	}
}
