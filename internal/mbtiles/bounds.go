package mbtiles

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Reference extent used for the bounds sanity heuristic: the Netherlands
// with a one-degree tolerance on each side. Archives produced by the
// geodata pipeline should always fall inside it.
var referenceRegion = BBox{West: 3.36, South: 50.75, East: 7.23, North: 53.56}

const boundsTolerance = 1.0

// defaultPlaceholder is the extent some tiling tools write when bounds
// were never set; seeing it means the metadata was not updated.
var defaultPlaceholder = BBox{West: -15, South: 30, East: 35, North: 75}

// BBox is a geographic bounding box in degrees (west,south,east,north).
type BBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

func (b BBox) Width() float64  { return b.East - b.West }
func (b BBox) Height() float64 { return b.North - b.South }

// overlaps is a standard AABB intersection test.
func (b BBox) overlaps(o BBox) bool {
	return b.West < o.East && b.East > o.West && b.South < o.North && b.North > o.South
}

// within reports whether b lies entirely inside o.
func (b BBox) within(o BBox) bool {
	return b.West >= o.West && b.East <= o.East && b.South >= o.South && b.North <= o.North
}

func (b BBox) approxEqual(o BBox) bool {
	const eps = 1e-9
	return math.Abs(b.West-o.West) < eps && math.Abs(b.South-o.South) < eps &&
		math.Abs(b.East-o.East) < eps && math.Abs(b.North-o.North) < eps
}

// BoundsCheck classifies the declared bounds of an archive.
type BoundsCheck struct {
	// Status is one of valid, suspicious, no_bounds, invalid.
	Status    string  `json:"status"`
	Bounds    *BBox   `json:"bounds,omitempty"`
	Overlaps  bool    `json:"overlapsReference"`
	Contained bool    `json:"containedInReference"`
	Width     float64 `json:"width,omitempty"`
	Height    float64 `json:"height,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// ClassifyBounds evaluates a metadata bounds value against the reference
// region. present=false means the metadata carried no bounds key at all.
func ClassifyBounds(raw string, present bool) BoundsCheck {
	if !present {
		return BoundsCheck{Status: "no_bounds"}
	}
	box, err := ParseBounds(raw)
	if err != nil {
		return BoundsCheck{Status: "invalid", Error: err.Error()}
	}

	ref := BBox{
		West:  referenceRegion.West - boundsTolerance,
		South: referenceRegion.South - boundsTolerance,
		East:  referenceRegion.East + boundsTolerance,
		North: referenceRegion.North + boundsTolerance,
	}
	check := BoundsCheck{
		Bounds:    &box,
		Overlaps:  box.overlaps(ref),
		Contained: box.within(ref),
		Width:     box.Width(),
		Height:    box.Height(),
	}
	if check.Overlaps && check.Contained {
		check.Status = "valid"
	} else {
		check.Status = "suspicious"
	}
	return check
}

// ParseBounds parses the MBTiles metadata bounds format:
// "west,south,east,north" in decimal degrees.
func ParseBounds(raw string) (BBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return BBox{}, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BBox{}, fmt.Errorf("value %d: %w", i+1, err)
		}
		vals[i] = f
	}
	box := BBox{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}
	if box.East <= box.West || box.North <= box.South {
		return BBox{}, fmt.Errorf("degenerate bounds: east<=west or north<=south")
	}
	return box, nil
}

// Recommendation rule thresholds.
const (
	minExpectedTiles = 100
	minDeclaredZoom  = 12
	highResZoom      = 10
	minZoomLevels    = 6
)

// recommendations applies the fixed symptomatic-condition rules. None
// is fatal; each triggered rule contributes one human-readable line.
func recommendations(rep *Report) []string {
	var out []string

	if rep.Stats != nil && rep.Stats.Total < minExpectedTiles {
		out = append(out, fmt.Sprintf(
			"only %d tiles present; generation may be incomplete", rep.Stats.Total))
	}

	if raw, ok := rep.Metadata["bounds"]; ok {
		if box, err := ParseBounds(raw); err == nil && box.approxEqual(defaultPlaceholder) {
			out = append(out, "bounds match the default placeholder extent; metadata was not updated")
		}
	}

	if raw, ok := rep.Metadata["maxzoom"]; ok {
		if maxzoom, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && maxzoom < minDeclaredZoom {
			out = append(out, fmt.Sprintf(
				"declared maxzoom %d is below %d; resolution will be low", maxzoom, minDeclaredZoom))
		}
	}

	if rep.Stats != nil && len(rep.Stats.Zooms) > 0 {
		maxPresent := rep.Stats.Zooms[len(rep.Stats.Zooms)-1]
		if maxPresent <= highResZoom {
			out = append(out, fmt.Sprintf(
				"no tiles above zoom %d; high-resolution views will be empty", highResZoom))
		}
		if len(rep.Stats.Zooms) < minZoomLevels {
			out = append(out, fmt.Sprintf(
				"only %d zoom levels present; zoom coverage is limited", len(rep.Stats.Zooms)))
		}
	}
	return out
}
