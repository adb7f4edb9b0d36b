package statistics

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/falconx-app/FalconX/app/repository"
	"github.com/falconx-app/FalconX/internal/pkg/cache"
)

const (
	CacheKeyUsersTotal      = "statistics:users:total"
	CacheKeyClonesActive    = "statistics:clones:active"
	CacheKeyDetectionsDaily = "statistics:detections:daily:%s" // Format with date YYYY-MM-DD
	CacheExpiration         = 30 * time.Minute
)

// StatisticsData holds the dashboard overview numbers.
type StatisticsData struct {
	TotalUsers      int `json:"total_users"`
	ActiveClones    int `json:"active_clones"`
	TodayDetections int `json:"today_detections"`
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cached totals are stale.
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cached totals at most every few minutes.
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("statistics: cache refresh failed: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// UpdateStatisticsCache recomputes all statistics and writes them to the cache.
func UpdateStatisticsCache() error {
	repos := repository.GetGlobalRepositories()

	totalUsers, err := repos.User.Count()
	if err != nil {
		return err
	}
	if err := cache.Set(CacheKeyUsersTotal, totalUsers, CacheExpiration); err != nil {
		return err
	}

	activeClones, err := repos.Clone.CountActive()
	if err != nil {
		return err
	}
	if err := cache.Set(CacheKeyClonesActive, activeClones, CacheExpiration); err != nil {
		return err
	}

	now := time.Now()
	todayDetections, err := repos.Clone.CountLogsSince(startOfDay(now))
	if err != nil {
		return err
	}
	return cache.Set(dailyDetectionsKey(now), todayDetections, CacheExpiration)
}

// GetStatistics returns the dashboard totals, preferring cached values.
func GetStatistics() StatisticsData {
	UpdateCacheIfNeeded()

	data := StatisticsData{}
	if v, err := cache.GetInt(CacheKeyUsersTotal); err == nil {
		data.TotalUsers = v
	}
	if v, err := cache.GetInt(CacheKeyClonesActive); err == nil {
		data.ActiveClones = v
	}
	if v, err := cache.GetInt(dailyDetectionsKey(time.Now())); err == nil {
		data.TodayDetections = v
	}
	return data
}

// startOfDay returns local midnight of t's day. Truncate(24h) would align
// to UTC midnight instead, which shifts the day boundary on hosts west or
// east of UTC.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// dailyDetectionsKey builds the cache key for t's local date. Writer and
// reader both go through here so the key always names the same day.
func dailyDetectionsKey(t time.Time) string {
	return fmt.Sprintf(CacheKeyDetectionsDaily, t.Format("2006-01-02"))
}
