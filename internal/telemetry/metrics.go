// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package telemetry wraps the prometheus collectors this module exposes
// for the map-file reader and the label placement engine. Nothing here
// affects behavior or caching policy — it's pure observation, registered
// against a caller-supplied registry so multiple Reader/Placer instances
// in one process (tests, in particular) never collide on registration.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the collectors for one registry. Construct one per
// prometheus.Registry with New and share it across Reader/Placer
// instances that report to the same registry.
type Metrics struct {
	TilesRead              *prometheus.CounterVec
	OpenDuration           prometheus.Histogram
	DependencyCacheSize    prometheus.Gauge
	CandidatesRejected     *prometheus.CounterVec
}

// New creates and registers the collectors against reg. Passing the same
// registry to two Metrics instances causes a registration error from the
// second New call, by design — callers share one Metrics instead.
func New(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		TilesRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mapfile_tiles_read_total",
			Help: "Tiles read from a map file, partitioned by outcome.",
		}, []string{"result"}),
		OpenDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mapfile_open_duration_seconds",
			Help:    "Time spent validating a map file header on Open.",
			Buckets: prometheus.DefBuckets,
		}),
		DependencyCacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "label_dependency_cache_size",
			Help: "Number of tiles currently tracked by the label dependency cache.",
		}),
		CandidatesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "label_candidates_rejected_total",
			Help: "Label/symbol candidates rejected during placement, partitioned by reason.",
		}, []string{"reason"}),
	}

	for _, c := range []prometheus.Collector{m.TilesRead, m.OpenDuration, m.DependencyCacheSize, m.CandidatesRejected} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Rejection reasons for CandidatesRejected.
const (
	ReasonOverlap         = "overlap"
	ReasonDrawnNeighbour  = "drawn_neighbour"
	ReasonReferencePoint  = "reference_point"
)
