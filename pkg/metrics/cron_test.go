package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsRecordsRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.now = func() time.Time { return time.Unix(1_790_000_000, 0) }

	job := "invoice-overdue"
	m.ObserveRun(job, 250*time.Millisecond, nil)
	m.ObserveRun(job, time.Second, nil)
	m.ObserveRun(job, 2*time.Second, errors.New("db down"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	success := labelled(mfs, "catering_cron_job_runs_total", map[string]string{"job": job, "result": "success"})
	failure := labelled(mfs, "catering_cron_job_runs_total", map[string]string{"job": job, "result": "failure"})
	if success == nil || success.GetCounter().GetValue() != 2 {
		t.Fatalf("expected two successes, got %v", success)
	}
	if failure == nil || failure.GetCounter().GetValue() != 1 {
		t.Fatalf("expected one failure, got %v", failure)
	}

	hist := labelled(mfs, "catering_cron_job_duration_seconds", map[string]string{"job": job})
	if hist == nil || hist.GetHistogram().GetSampleCount() != 3 || hist.GetHistogram().GetSampleSum() != 3.25 {
		t.Fatalf("unexpected histogram %v", hist)
	}

	last := labelled(mfs, "catering_cron_job_last_success_timestamp_seconds", map[string]string{"job": job})
	if last == nil || last.GetGauge().GetValue() != 1_790_000_000 {
		t.Fatalf("unexpected last success %v", last)
	}
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var m *CronJobMetrics
	m.ObserveRun("x", time.Second, nil)
	if NewCronJobMetrics(nil) != nil {
		t.Fatalf("nil registerer should yield a nil recorder")
	}
}

func labelled(mfs []*dto.MetricFamily, name string, want map[string]string) *dto.Metric {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if hasLabels(metric, want) {
				return metric
			}
		}
	}
	return nil
}

func hasLabels(metric *dto.Metric, want map[string]string) bool {
	got := map[string]string{}
	for _, pair := range metric.GetLabel() {
		got[pair.GetName()] = pair.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

