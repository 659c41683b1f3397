package janitor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"Audiotheque/logger"
	"Audiotheque/storage"

	"github.com/dustin/go-humanize"
	"github.com/robfig/cron/v3"
)

// DefaultGrace protects objects whose upload has not been recorded yet.
const DefaultGrace = time.Hour

// ObjectStore is the part of the media host the janitor needs.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]storage.ObjectInfo, *storage.BucketStats, error)
	Delete(ctx context.Context, key string) error
}

// KeySource lists the media keys still referenced by audio records.
type KeySource interface {
	ListPublicIDs(ctx context.Context) ([]string, error)
}

// Report summarizes one sweep.
type Report struct {
	Scanned int
	Deleted int
	Freed   int64
	Failed  int
}

// Janitor deletes media objects that no audio record references.
type Janitor struct {
	store   ObjectStore
	keys    KeySource
	grace   time.Duration
	now     func() time.Time
	running atomic.Bool
	cron    *cron.Cron
}

// New creates a janitor. Objects younger than grace are never deleted.
func New(store ObjectStore, keys KeySource, grace time.Duration) *Janitor {
	return &Janitor{store: store, keys: keys, grace: grace, now: time.Now}
}

// Sweep runs one pass over the audio prefix.
func (j *Janitor) Sweep(ctx context.Context) (Report, error) {
	var report Report
	if !j.running.CompareAndSwap(false, true) {
		return report, fmt.Errorf("sweep already running")
	}
	defer j.running.Store(false)

	referenced, err := j.keys.ListPublicIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("list referenced keys: %w", err)
	}
	keep := make(map[string]struct{}, len(referenced))
	for _, k := range referenced {
		keep[k] = struct{}{}
	}

	objects, _, err := j.store.List(ctx, storage.AudioPrefix)
	if err != nil {
		return report, fmt.Errorf("list media objects: %w", err)
	}

	cutoff := j.now().Add(-j.grace)
	for _, obj := range objects {
		report.Scanned++
		if _, ok := keep[obj.Key]; ok {
			continue
		}
		if obj.LastModified.After(cutoff) {
			continue
		}
		if err := j.store.Delete(ctx, obj.Key); err != nil {
			report.Failed++
			logger.Warn("Failed to delete orphaned media", logger.String("key", obj.Key), logger.ErrorField(err))
			continue
		}
		report.Deleted++
		report.Freed += obj.Size
	}

	logger.Info("Media sweep finished",
		logger.Int("scanned", report.Scanned),
		logger.Int("deleted", report.Deleted),
		logger.Int("failed", report.Failed),
		logger.String("freed", humanize.IBytes(uint64(report.Freed))))
	return report, nil
}

// Start schedules Sweep with a cron spec such as "@daily" or "0 3 * * *".
func (j *Janitor) Start(schedule string) error {
	j.cron = cron.New()
	_, err := j.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if _, err := j.Sweep(ctx); err != nil {
			logger.Error("Scheduled media sweep failed", logger.ErrorField(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule janitor %q: %w", schedule, err)
	}
	j.cron.Start()
	logger.Info("Media janitor scheduled", logger.String("schedule", schedule))
	return nil
}

// Stop halts the schedule and waits for a running sweep.
func (j *Janitor) Stop() {
	if j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
}
