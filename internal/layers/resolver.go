// Package layers resolves human-readable layer identifiers to stored
// geospatial files and serves downloads from object storage.
package layers

import (
	"regexp"
	"strings"
)

// Sea-level-rise cluster exports encode scenario and risk type in the
// filename, e.g. "clusters_SLR-3-Severe_GDP.pmtiles".
var clusterPattern = regexp.MustCompile(`clusters_SLR-(\d+)-([A-Za-z0-9]+)_([A-Za-z0-9]+)`)

// Upload filenames may carry a unix-timestamp prefix added by the admin UI.
var timestampPrefix = regexp.MustCompile(`^\d+_`)

// DeriveID maps a stored filename to its stable layer identifier.
//
// The identifier is the filename with its extension removed, except for
// sea-level-rise cluster files, whose identifier is rebuilt from the
// scenario and risk-type tokens embedded in the name. The derivation is
// pure: the same filename always yields the same identifier, and an
// already-derived identifier maps to itself.
func DeriveID(filename string) string {
	name := stripExtension(filename)
	if strings.Contains(filename, "clusters_SLR") {
		if m := clusterPattern.FindStringSubmatch(filename); m != nil {
			return "clusters-slr-" + strings.ToLower(m[2]) + "-" + strings.ToLower(m[3])
		}
	}
	return name
}

// DeriveDebugID is the variant used by the tile-archive inspector. It
// additionally drops a leading "<timestamp>_" prefix so re-uploaded
// archives keep matching their original identifier.
func DeriveDebugID(filename string) string {
	return DeriveID(timestampPrefix.ReplaceAllString(filename, ""))
}

func stripExtension(filename string) string {
	if i := strings.LastIndex(filename, "."); i > 0 {
		return filename[:i]
	}
	return filename
}

// ContentTypeFor returns the download content type declared for a stored
// layer file, keyed by extension. Unrecognized extensions fall back to a
// generic binary type.
func ContentTypeFor(filename string) string {
	ext := strings.ToLower(filename)
	if i := strings.LastIndex(ext, "."); i >= 0 {
		ext = ext[i:]
	} else {
		ext = ""
	}
	switch ext {
	case ".tif", ".cog":
		return "image/tiff"
	case ".mbtiles", ".db":
		return "application/x-mbtiles"
	default:
		return "application/octet-stream"
	}
}
