package app

import (
	"context"
	"time"

	"github.com/orangeboy/storefront/internal/catalog"
	"github.com/orangeboy/storefront/internal/domain"
	"github.com/orangeboy/storefront/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ErrJobNotFound is returned by RunJobNow for an unknown job name.
var ErrJobNotFound = errors.New("job not found")

// Job is a named background task driven by the cron scheduler.
type Job struct {
	Name    string
	Spec    string
	run     func()
	entryID cron.EntryID
}

// JobStatus is the admin view of a Job.
type JobStatus struct {
	Name      string    `json:"name"`
	Spec      string    `json:"spec"`
	Scheduled bool      `json:"scheduled"`
	PrevRun   time.Time `json:"prevRun"`
	NextRun   time.Time `json:"nextRun"`
}

func (a *Application) defineJobs() []*Job {
	return []*Job{
		{Name: "backend_probe", Spec: "@every 1m", run: a.SchedBackendProbeTask},
		{Name: "translation_cache_stats", Spec: "@every 30s", run: a.SchedTranslationCacheTask},
	}
}

func (a *Application) initJob() {
	loc, err := time.LoadLocation(a.appConfig.System.Location)
	if err != nil {
		loc = time.Local
	}
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	if a.jobs == nil {
		a.jobs = a.defineJobs()
	}
	for _, job := range a.jobs {
		id, err := a.sched.AddFunc(job.Spec, job.run)
		if err != nil {
			zap.S().Errorf("init job %s error %s", job.Name, err.Error())
			continue
		}
		job.entryID = id
	}

	a.sched.Start()
}

// Jobs reports the background jobs and, once scheduled, their run times.
func (a *Application) Jobs() []JobStatus {
	out := make([]JobStatus, 0, len(a.jobs))
	for _, job := range a.jobs {
		st := JobStatus{Name: job.Name, Spec: job.Spec}
		if a.sched != nil && job.entryID != 0 {
			entry := a.sched.Entry(job.entryID)
			st.Scheduled = entry.Valid()
			st.PrevRun = entry.Prev
			st.NextRun = entry.Next
		}
		out = append(out, st)
	}
	return out
}

// RunJobNow runs the named job synchronously outside its schedule.
func (a *Application) RunJobNow(name string) error {
	for _, job := range a.jobs {
		if job.Name == name {
			zap.L().Info("job triggered manually", zap.String("job", name))
			job.run()
			return nil
		}
	}
	return errors.Wrap(ErrJobNotFound, name)
}

// SchedBackendProbeTask pings the durable backend and publishes its health.
func (a *Application) SchedBackendProbeTask() {
	name := a.catalog.BackendName()
	if name == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.catalog.Ping(ctx); err != nil {
		metrics.SetBackendUp(name, false)
		zap.L().Warn("durable backend probe failed", zap.String("backend", name), zap.Error(err))
		return
	}
	metrics.SetBackendUp(name, true)
}

// SchedTranslationCacheTask exports the translation cache occupancy.
func (a *Application) SchedTranslationCacheTask() {
	metrics.SetTranslationCacheSize(a.gateway.CacheLen())
}

// subscribeAudit logs every product change published by the catalog.
func (a *Application) subscribeAudit() {
	logProduct := func(action string) func(domain.Product, string) {
		return func(p domain.Product, source string) {
			zap.L().Info("product "+action,
				zap.Int64("id", p.ID),
				zap.String("name", p.Name),
				zap.String("source", source))
		}
	}
	subscriptions := map[string]interface{}{
		catalog.TopicProductCreated: logProduct("created"),
		catalog.TopicProductUpdated: logProduct("updated"),
		catalog.TopicProductDeleted: func(id string, source string) {
			zap.L().Info("product deleted", zap.String("id", id), zap.String("source", source))
		},
		catalog.TopicImageUploaded: func(img domain.Image, source string) {
			zap.L().Info("image uploaded", zap.Int64("id", img.ID), zap.String("source", source))
		},
	}
	for topic, fn := range subscriptions {
		if err := a.bus.Subscribe(topic, fn); err != nil {
			zap.L().Error("event subscribe failed", zap.String("topic", topic), zap.Error(err))
		}
	}
}
