package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
)

const namespace = "madarcrm"

// Recorder exports demo lifecycle metrics to Prometheus.
type Recorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	records    *prometheus.CounterVec
}

var _ demo.MetricsRecorder = (*Recorder)(nil) // interface compliance check

// NewRecorder registers the demo collectors with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	rec := &Recorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "demo",
			Name:      "operations_total",
			Help:      "Demo lifecycle operations by result.",
		}, []string{"operation", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "demo",
			Name:      "operation_duration_seconds",
			Help:      "Duration of demo lifecycle operations.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "demo",
			Name:      "records_total",
			Help:      "Demo records written or removed, by kind.",
		}, []string{"operation", "kind"}),
	}
	for _, c := range []prometheus.Collector{rec.operations, rec.durations, rec.records} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (r *Recorder) ObserveOperation(op demo.Operation, status demo.Status, elapsed time.Duration) {
	r.operations.WithLabelValues(string(op), string(status)).Inc()
	r.durations.WithLabelValues(string(op)).Observe(elapsed.Seconds())
}

func (r *Recorder) AddRecords(op demo.Operation, counts demo.Counts) {
	for kind, n := range map[string]int{
		"persons":    counts.Persons,
		"staff":      counts.Staff,
		"attendance": counts.Attendance,
		"fees":       counts.Fees,
	} {
		if n > 0 {
			r.records.WithLabelValues(string(op), kind).Add(float64(n))
		}
	}
}
