package metrics

import (
	"fmt"

	dto "github.com/prometheus/client_model/go"
)

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	metric := labelled(mfs, name, map[string]string{label: value})
	if metric == nil {
		return 0, fmt.Errorf("counter %q with %s=%s not found", name, label, value)
	}
	return metric.GetCounter().GetValue(), nil
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	metric := labelled(mfs, name, map[string]string{label: value})
	if metric == nil {
		return 0, fmt.Errorf("histogram %q with %s=%s not found", name, label, value)
	}
	return metric.GetHistogram().GetSampleSum(), nil
}
