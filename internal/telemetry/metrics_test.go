// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.TilesRead.WithLabelValues("ok").Inc()
	m.OpenDuration.Observe(0.01)
	m.DependencyCacheSize.Set(3)
	m.CandidatesRejected.WithLabelValues(ReasonOverlap).Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["mapfile_tiles_read_total"])
	assert.True(t, names["mapfile_open_duration_seconds"])
	assert.True(t, names["label_dependency_cache_size"])
	assert.True(t, names["label_candidates_rejected_total"])
}

func TestNew_SecondRegistrationOnSameRegistryFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}
