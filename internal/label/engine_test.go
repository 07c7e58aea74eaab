// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_PlaceRejectsOverlap(t *testing.T) {
	e := NewEngine()
	pois := []PointTextContainer{
		{Text: "A", X: 10, Y: 10, Boundary: &Rectangle{Left: 10, Top: 10, Right: 50, Bottom: 20}},
		{Text: "B", X: 15, Y: 10, Boundary: &Rectangle{Left: 15, Top: 10, Right: 55, Bottom: 20}},
		{Text: "C", X: 100, Y: 100, Boundary: &Rectangle{Left: 100, Top: 100, Right: 140, Bottom: 110}},
	}

	placed := e.Place(pois)
	require.Len(t, placed, 2)
	assert.Equal(t, "A", placed[0].Text)
	assert.Equal(t, "C", placed[1].Text)
}

func TestEngine_FourPointSymbolCandidates(t *testing.T) {
	e := NewEngine()
	poi := PointTextContainer{
		Text: "Cafe", X: 0, Y: 0,
		Boundary: &Rectangle{Left: 0, Top: 0, Right: 24, Bottom: 10},
		Symbol:   &SymbolContainer{X: 100, Y: 100, Width: 16, Height: 16},
	}
	candidates := e.candidatesFor(poi)
	assert.Len(t, candidates, 4)
}

func TestEngine_TwoPointWhenNoSymbolExtent(t *testing.T) {
	e := NewEngine()
	poi := PointTextContainer{
		Text: "Cafe", X: 0, Y: 0,
		Boundary: &Rectangle{Left: 0, Top: 0, Right: 24, Bottom: 10},
		Symbol:   &SymbolContainer{X: 100, Y: 100},
	}
	candidates := e.candidatesFor(poi)
	assert.Len(t, candidates, 2)
}

func TestEngine_PlaceAreaLabelsRejectsOverlap(t *testing.T) {
	e := NewEngine()
	areas := []AreaLabelContainer{
		{Text: "Park", X: 0, Y: 0, Boundary: &Rectangle{Left: 0, Top: 0, Right: 40, Bottom: 20}},
		{Text: "Lake", X: 10, Y: 5, Boundary: &Rectangle{Left: 10, Top: 5, Right: 50, Bottom: 25}},
	}
	placed := e.PlaceAreaLabels(areas)
	require.Len(t, placed, 1)
	assert.Equal(t, "Park", placed[0].Text)
}
