// Package tasks hosts background jobs scheduled with cron.
package tasks

import (
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/cppla/seoblog/controllers"
	"github.com/cppla/seoblog/utils"
)

// feedWarmSchedule refreshes the home feed cache twice an hour, half of its TTL.
const feedWarmSchedule = "@every 30m"

// FeedWarmer periodically rebuilds the blogs-categories-tags payload for the
// default page so the most common read never waits on the database.
type FeedWarmer struct {
	db   *gorm.DB
	cron *cron.Cron
}

// StartFeedWarmer schedules the warming job. Without a Redis host configured
// this is a no-op.
func StartFeedWarmer(db *gorm.DB) *FeedWarmer {
	w := &FeedWarmer{db: db, cron: cron.New()}

	if utils.GetRedis() == nil {
		if utils.Sugar != nil {
			utils.Sugar.Info("feed warmer disabled: no redis configured")
		}
		return w
	}

	if _, err := w.cron.AddFunc(feedWarmSchedule, w.warm); err != nil {
		utils.Sugar.Errorf("failed to schedule feed warmer: %v", err)
		return w
	}
	w.cron.Start()
	utils.Sugar.Infof("feed warmer scheduled (%s)", feedWarmSchedule)
	return w
}

// Stop halts the schedule; running jobs finish on their own.
func (w *FeedWarmer) Stop() {
	w.cron.Stop()
}

func (w *FeedWarmer) warm() {
	start := time.Now()
	payload, err := controllers.BlogFeed(w.db, 10, 0)
	if err != nil {
		utils.Sugar.Warnf("feed warm query failed: %v", err)
		return
	}
	utils.CacheSetJSON("cache:blogs:feed:limit=10:skip=0", payload, time.Hour)
	utils.Sugar.Debugf("feed cache warmed in %s", time.Since(start))
}
