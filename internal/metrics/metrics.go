package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "speechcorpus"

// Recorder holds the collectors of one corpus build.
type Recorder struct {
	registry *prometheus.Registry

	words              *prometheus.CounterVec
	wordsSkipped       prometheus.Counter
	labels             *prometheus.CounterVec
	utterances         prometheus.Counter
	speakers           prometheus.Gauge
	recordings         *prometheus.CounterVec
	utteranceDuration  prometheus.Histogram
	recordingSegmented prometheus.Histogram
}

// New registers a fresh set of collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		words: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "words_total",
				Help:      "Alignment words processed by alignment case",
			},
			[]string{"case"},
		),
		wordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "words_skipped_total",
			Help:      "Words left out because no timing could be resolved",
		}),
		labels: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "labels_total",
				Help:      "Speaker labels detected by outcome",
			},
			[]string{"result"},
		),
		utterances: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_total",
			Help:      "Utterances emitted",
		}),
		speakers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "speakers",
			Help:      "Distinct global speaker ids assigned",
		}),
		recordings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recordings_total",
				Help:      "Recordings handled by outcome",
			},
			[]string{"status"},
		),
		utteranceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "utterance_duration_seconds",
			Help:      "Audio duration of emitted utterances",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 15, 20, 30, 60},
		}),
		recordingSegmented: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recording_segment_seconds",
			Help:      "Wall time spent loading and segmenting one recording",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	r.registry.MustRegister(
		r.words,
		r.wordsSkipped,
		r.labels,
		r.utterances,
		r.speakers,
		r.recordings,
		r.utteranceDuration,
		r.recordingSegmented,
	)
	return r
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordingCounts is the per-recording tally fed to Recorder.
type RecordingCounts struct {
	Aligned         int
	NotFound        int
	Skipped         int
	Labels          int
	LabelsDiscarded int
	Elapsed         time.Duration
}

// ObserveRecording adds one recording's tallies.
func (r *Recorder) ObserveRecording(c RecordingCounts) {
	if r == nil {
		return
	}
	r.words.WithLabelValues("success").Add(float64(c.Aligned))
	r.words.WithLabelValues("not-found-in-audio").Add(float64(c.NotFound))
	r.wordsSkipped.Add(float64(c.Skipped))
	r.labels.WithLabelValues("resolved").Add(float64(c.Labels))
	r.labels.WithLabelValues("discarded").Add(float64(c.LabelsDiscarded))
	r.recordings.WithLabelValues("segmented").Inc()
	r.recordingSegmented.Observe(c.Elapsed.Seconds())
}

// RecordingSkipped counts a manifest entry that had no alignment.
func (r *Recorder) RecordingSkipped() {
	if r == nil {
		return
	}
	r.recordings.WithLabelValues("skipped").Inc()
}

// ObserveUtterance counts one emitted utterance.
func (r *Recorder) ObserveUtterance(durationSeconds float64) {
	if r == nil {
		return
	}
	r.utterances.Inc()
	r.utteranceDuration.Observe(durationSeconds)
}

// SetSpeakers records the size of the global speaker table.
func (r *Recorder) SetSpeakers(n int) {
	if r == nil {
		return
	}
	r.speakers.Set(float64(n))
}

// WriteTextfile writes the registry to path atomically, in the format read by
// the node-exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
