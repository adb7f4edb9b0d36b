package detection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/falconx-app/FalconX/app/models"
	"github.com/falconx-app/FalconX/internal/pkg/events"
	"github.com/falconx-app/FalconX/internal/pkg/metering"
)

const testUserID = "2f1d3c4b-5a69-4788-9a0b-1c2d3e4f5a6b"

// fakeDomainRepo serves the allow-list from memory.
type fakeDomainRepo struct {
	domains []string
	err     error
}

func (f *fakeDomainRepo) Create(*models.AllowedDomain) error { return nil }
func (f *fakeDomainRepo) GetByID(uint) (*models.AllowedDomain, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeDomainRepo) ListByUserID(string) ([]models.AllowedDomain, error) { return nil, nil }
func (f *fakeDomainRepo) ListActiveDomains(string) ([]string, error)          { return f.domains, f.err }
func (f *fakeDomainRepo) CountActiveByUserID(string) (int64, error) {
	return int64(len(f.domains)), nil
}
func (f *fakeDomainRepo) Deactivate(uint, string) error { return nil }

// fakeCloneRepo keeps clone rows keyed by domain and records every hit and log.
type fakeCloneRepo struct {
	clones    map[string]*models.DetectedClone
	nextID    uint
	createErr error
	getErr    error
	logErr    error
	hits      []uint
	logs      []models.DetectionLog

	// raceRow simulates a concurrent insert winning between the lookup and
	// the create: Create stores it and reports a duplicate key.
	raceRow *models.DetectedClone
}

func newFakeCloneRepo() *fakeCloneRepo {
	return &fakeCloneRepo{clones: make(map[string]*models.DetectedClone)}
}

func (f *fakeCloneRepo) Create(clone *models.DetectedClone) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.raceRow != nil {
		f.clones[f.raceRow.CloneDomain] = f.raceRow
		return gorm.ErrDuplicatedKey
	}
	f.nextID++
	clone.ID = f.nextID
	f.clones[clone.CloneDomain] = clone
	return nil
}

func (f *fakeCloneRepo) GetByID(id uint, userID string) (*models.DetectedClone, error) {
	for _, c := range f.clones {
		if c.ID == id && c.UserID == userID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCloneRepo) GetByUserAndDomain(userID, domain string) (*models.DetectedClone, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if c, ok := f.clones[domain]; ok && c.UserID == userID {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCloneRepo) RecordHit(id uint, seenAt time.Time, stats models.PageStats) error {
	f.hits = append(f.hits, id)
	for _, c := range f.clones {
		if c.ID == id {
			c.DetectionCount++
			c.LastSeen = seenAt
			c.IsActive = true
			c.PageStats = c.PageStats.Merge(stats)
		}
	}
	return nil
}

func (f *fakeCloneRepo) SetActive(uint, string, bool) error { return nil }
func (f *fakeCloneRepo) ListByUserID(string, int, int) ([]models.DetectedClone, error) {
	return nil, nil
}
func (f *fakeCloneRepo) CountByUserID(string) (int64, error) { return int64(len(f.clones)), nil }
func (f *fakeCloneRepo) CountActive() (int64, error)         { return int64(len(f.clones)), nil }

func (f *fakeCloneRepo) AppendLog(entry *models.DetectionLog) error {
	if f.logErr != nil {
		return f.logErr
	}
	f.logs = append(f.logs, *entry)
	return nil
}

func (f *fakeCloneRepo) CountLogsSince(time.Time) (int64, error) { return int64(len(f.logs)), nil }

// fakeSubRepo holds one subscription in memory.
type fakeSubRepo struct {
	sub     *models.Subscription
	plan    models.Plan
	updates int
}

func (f *fakeSubRepo) GetActiveByUserID(string) (*models.Subscription, error) {
	if f.sub == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.sub, nil
}

func (f *fakeSubRepo) Create(sub *models.Subscription) error {
	f.sub = sub
	return nil
}

func (f *fakeSubRepo) Update(*models.Subscription) error {
	f.updates++
	return nil
}

func (f *fakeSubRepo) GetPlanBySlug(string) (*models.Plan, error) { return &f.plan, nil }

// fakeActionRepo serves countermeasure configs from a slice.
type fakeActionRepo struct {
	actions []models.CloneAction
	err     error
}

func (f *fakeActionRepo) Create(a *models.CloneAction) error {
	f.actions = append(f.actions, *a)
	return nil
}

func (f *fakeActionRepo) GetByID(uint, string) (*models.CloneAction, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeActionRepo) ListByUserID(string) ([]models.CloneAction, error) {
	return f.actions, f.err
}

func (f *fakeActionRepo) ListActiveGlobal(string) ([]models.CloneAction, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.CloneAction
	for _, a := range f.actions {
		if a.IsActive && a.CloneID == nil {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeActionRepo) Update(*models.CloneAction) error { return nil }
func (f *fakeActionRepo) Delete(uint, string) error        { return nil }

type fakePublisher struct {
	events []events.CloneDetected
	err    error
}

func (f *fakePublisher) PublishCloneDetected(_ context.Context, e events.CloneDetected) error {
	f.events = append(f.events, e)
	return f.err
}

func freeSubscription(limit int) *models.Subscription {
	plan := models.Plan{ID: 1, Slug: models.PlanFree, Name: "Free", CloneLimit: limit, DomainLimit: 1}
	return &models.Subscription{
		ID:         1,
		UserID:     testUserID,
		PlanID:     plan.ID,
		Plan:       plan,
		Status:     models.SubscriptionStatusActive,
		CloneLimit: limit,
		ResetDate:  time.Now().AddDate(0, 1, 0),
	}
}

func newTestEngine(domains *fakeDomainRepo, clones *fakeCloneRepo, subs *fakeSubRepo, opts ...EngineOption) *Engine {
	meter := metering.NewMeter(subs)
	selector := NewSelector(&fakeActionRepo{})
	return NewEngine(domains, clones, meter, selector, opts...)
}

func TestProcessDetectionAuthorizedDomain(t *testing.T) {
	domains := &fakeDomainRepo{domains: []string{"example.com"}}
	clones := newFakeCloneRepo()
	subs := &fakeSubRepo{sub: freeSubscription(1)}
	engine := newTestEngine(domains, clones, subs)

	res, err := engine.ProcessDetection(context.Background(), Report{
		UserID: testUserID,
		Domain: "https://www.example.com/pricing",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusAuthorized, res.Status)
	assert.Equal(t, "example.com", res.Domain)
	assert.Empty(t, clones.clones, "authorized domains must not create clone records")
	assert.Empty(t, clones.logs, "authorized domains must not be logged as detections")
}

func TestProcessDetectionNewClone(t *testing.T) {
	domains := &fakeDomainRepo{domains: []string{"example.com"}}
	clones := newFakeCloneRepo()
	subs := &fakeSubRepo{sub: freeSubscription(1)}
	engine := newTestEngine(domains, clones, subs)

	res, err := engine.ProcessDetection(context.Background(), Report{
		UserID:    testUserID,
		Domain:    "evil.com",
		PageURL:   "https://evil.com/?fbclid=abc",
		IPAddress: "203.0.113.9",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusDetected, res.Status)
	assert.Equal(t, "example.com", res.OriginalDomain)
	assert.True(t, res.NewClone)
	require.NotNil(t, res.CloneID)

	clone := clones.clones["evil.com"]
	require.NotNil(t, clone)
	assert.Equal(t, int64(1), clone.DetectionCount)
	assert.True(t, clone.IsActive)

	require.NotNil(t, res.Usage)
	assert.Equal(t, 1, res.Usage.CurrentCount)

	require.Len(t, clones.logs, 1)
	assert.Equal(t, *res.CloneID, *clones.logs[0].CloneID)
	assert.Equal(t, "203.0.113.9", clones.logs[0].IPAddress)
}

func TestProcessDetectionRepeatPingIsIdempotent(t *testing.T) {
	domains := &fakeDomainRepo{domains: []string{"example.com"}}
	clones := newFakeCloneRepo()
	subs := &fakeSubRepo{sub: freeSubscription(1)}
	engine := newTestEngine(domains, clones, subs)

	report := Report{UserID: testUserID, Domain: "evil.com"}

	first, err := engine.ProcessDetection(context.Background(), report)
	require.NoError(t, err)
	second, err := engine.ProcessDetection(context.Background(), report)
	require.NoError(t, err)

	assert.True(t, first.NewClone)
	assert.False(t, second.NewClone)
	assert.Equal(t, *first.CloneID, *second.CloneID, "repeat pings must hit the same row")

	assert.Len(t, clones.clones, 1)
	assert.Equal(t, int64(2), clones.clones["evil.com"].DetectionCount)
	assert.Len(t, clones.logs, 2, "every ping gets a log row")

	// The quota moved once, on creation, not per ping.
	assert.Equal(t, 1, subs.sub.CurrentCloneCount)
}

func TestProcessDetectionNoDomainsConfigured(t *testing.T) {
	domains := &fakeDomainRepo{}
	clones := newFakeCloneRepo()
	subs := &fakeSubRepo{sub: freeSubscription(1)}
	engine := newTestEngine(domains, clones, subs)

	res, err := engine.ProcessDetection(context.Background(), Report{
		UserID: testUserID,
		Domain: "anything.com",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusDetected, res.Status)
	assert.Equal(t, models.OriginalDomainUnknown, res.OriginalDomain)
}

func TestProcessDetectionAllowListLookupFailsClosed(t *testing.T) {
	domains := &fakeDomainRepo{err: errors.New("db down")}
	clones := newFakeCloneRepo()
	subs := &fakeSubRepo{sub: freeSubscription(1)}
	engine := newTestEngine(domains, clones, subs)

	res, err := engine.ProcessDetection(context.Background(), Report{
		UserID: testUserID,
		Domain: "example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusDetected, res.Status, "a failed lookup must not authorize")
}

func TestProcessDetectionRegistryFailureStillResponds(t *testing.T) {
	domains := &fakeDomainRepo{domains: []string{"example.com"}}
	clones := newFakeCloneRepo()
	clones.createErr = errors.New("insert failed")
	subs := &fakeSubRepo{sub: freeSubscription(1)}
	engine := newTestEngine(domains, clones, subs)

	res, err := engine.ProcessDetection(context.Background(), Report{
		UserID: testUserID,
		Domain: "evil.com",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusDetected, res.Status)
	assert.Nil(t, res.CloneID)
	assert.Empty(t, clones.logs, "no log row without a registry record")
	assert.Equal(t, 0, subs.sub.CurrentCloneCount, "failed inserts must not be metered")
}

func TestProcessDetectionCreateRaceFallsBackToHit(t *testing.T) {
	domains := &fakeDomainRepo{domains: []string{"example.com"}}
	clones := newFakeCloneRepo()
	clones.raceRow = &models.DetectedClone{
		ID:          7,
		UserID:      testUserID,
		CloneDomain: "evil.com",
		IsActive:    true,
	}
	subs := &fakeSubRepo{sub: freeSubscription(1)}
	engine := newTestEngine(domains, clones, subs)

	res, err := engine.ProcessDetection(context.Background(), Report{
		UserID: testUserID,
		Domain: "evil.com",
	})
	require.NoError(t, err)

	assert.False(t, res.NewClone, "the race loser must not report a new clone")
	require.NotNil(t, res.CloneID)
	assert.Equal(t, uint(7), *res.CloneID)
	assert.Equal(t, []uint{7}, clones.hits)
	assert.Equal(t, 0, subs.sub.CurrentCloneCount)
}

func TestProcessDetectionInvalidDomain(t *testing.T) {
	engine := newTestEngine(&fakeDomainRepo{}, newFakeCloneRepo(), &fakeSubRepo{sub: freeSubscription(1)})

	_, err := engine.ProcessDetection(context.Background(), Report{UserID: testUserID, Domain: "   "})
	assert.ErrorIs(t, err, ErrInvalidReport)
}

func TestProcessDetectionPublishesNewCloneEvent(t *testing.T) {
	domains := &fakeDomainRepo{domains: []string{"example.com"}}
	clones := newFakeCloneRepo()
	subs := &fakeSubRepo{sub: freeSubscription(1)}
	pub := &fakePublisher{}
	engine := newTestEngine(domains, clones, subs, WithPublisher(pub))

	report := Report{UserID: testUserID, Domain: "evil.com"}

	_, err := engine.ProcessDetection(context.Background(), report)
	require.NoError(t, err)
	_, err = engine.ProcessDetection(context.Background(), report)
	require.NoError(t, err)

	require.Len(t, pub.events, 1, "only the first detection publishes")
	assert.Equal(t, "evil.com", pub.events[0].CloneDomain)
	assert.Equal(t, "example.com", pub.events[0].OriginalDomain)
}

func TestResolveActionAuthorizedDomainGetsNone(t *testing.T) {
	domains := &fakeDomainRepo{domains: []string{"example.com"}}
	engine := newTestEngine(domains, newFakeCloneRepo(), &fakeSubRepo{sub: freeSubscription(1)})

	decision, err := engine.ResolveAction(context.Background(), Report{
		UserID: testUserID,
		Domain: "shop.example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, ActionNone, decision.Action)
}

func TestResolveActionUnauthorizedDomain(t *testing.T) {
	domains := &fakeDomainRepo{domains: []string{"example.com"}}
	actions := &fakeActionRepo{actions: []models.CloneAction{{
		ID:                 1,
		UserID:             testUserID,
		ActionType:         models.ActionTypeRedirect,
		RedirectURL:        "https://example.com",
		RedirectPercentage: 100,
		IsActive:           true,
	}}}
	meter := metering.NewMeter(&fakeSubRepo{sub: freeSubscription(1)})
	selector := NewSelector(actions, WithRand(func(int) int { return 0 }))
	engine := NewEngine(domains, newFakeCloneRepo(), meter, selector)

	decision, err := engine.ResolveAction(context.Background(), Report{
		UserID: testUserID,
		Domain: "evil.com",
	})
	require.NoError(t, err)
	assert.Equal(t, ActionRedirect, decision.Action)
	assert.Equal(t, "https://example.com", decision.URL)
}
