package job

import (
	"context"
	"time"

	"macroedge/internal/domain"
	"macroedge/internal/pipeline"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

type PipelineRunner interface {
	Run(ctx context.Context, opts pipeline.Options) (domain.PipelineRunResult, error)
}

// PipelineJob runs the full pipeline once a day at a fixed UTC hour.
type PipelineJob struct {
	tracer  trace.Tracer
	runner  PipelineRunner
	runHour int
	now     func() time.Time
}

func NewPipelineJob(tracer trace.Tracer, runner PipelineRunner, runHourUTC int) *PipelineJob {
	if runHourUTC < 0 || runHourUTC > 23 {
		runHourUTC = 0
	}
	return &PipelineJob{tracer: tracer, runner: runner, runHour: runHourUTC, now: time.Now}
}

func (j *PipelineJob) Start(ctx context.Context) {
	if j.runner == nil {
		log.Warn().Msg("pipeline job disabled: no runner")
		<-ctx.Done()
		return
	}
	log.Info().Int("hour_utc", j.runHour).Msg("pipeline job scheduled")
	for {
		next := nextRunUTC(j.now().UTC(), j.runHour)
		wait := next.Sub(j.now())
		if wait < time.Second {
			wait = time.Second
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			j.runOnce(ctx)
		}
	}
}

func (j *PipelineJob) runOnce(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "pipeline-job.run-once")
	defer span.End()

	asOf := j.now().UTC()
	res, err := j.runner.Run(ctx, pipeline.Options{AsOf: asOf})
	if err != nil {
		log.Error().Err(err).Str("date", asOf.Format(time.DateOnly)).Msg("scheduled pipeline run failed")
		return
	}
	ev := log.Info().Str("date", asOf.Format(time.DateOnly))
	if res.Bias != nil {
		ev = ev.Int("scores", len(res.Bias.Scores)).Int("index_errors", len(res.Bias.Errors))
	}
	ev.Msg("scheduled pipeline run finished")
}

func nextRunUTC(now time.Time, hour int) time.Time {
	run := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !run.After(now) {
		run = run.Add(24 * time.Hour)
	}
	return run
}
