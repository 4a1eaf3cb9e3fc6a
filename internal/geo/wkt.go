package geo

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseWKTPolygon parses a WKT "POLYGON((lng lat, lng lat, ...))" ring into
// a Polygon. Only the single outer ring is read; interior rings (holes)
// aren't part of any ServiceProfile this module loads, so they're ignored
// rather than rejected.
func ParseWKTPolygon(wkt string) (Polygon, error) {
	open := strings.Index(wkt, "((")
	close := strings.Index(wkt, "))")
	if open == -1 || close == -1 || close < open {
		return nil, fmt.Errorf("geo: malformed WKT polygon %q", wkt)
	}
	body := wkt[open+2 : close]
	if idx := strings.Index(body, "),("); idx != -1 {
		body = body[:idx]
	}

	pairs := strings.Split(body, ",")
	poly := make(Polygon, 0, len(pairs))
	for _, pair := range pairs {
		fields := strings.Fields(strings.TrimSpace(pair))
		if len(fields) != 2 {
			return nil, fmt.Errorf("geo: malformed WKT coordinate %q", pair)
		}
		lng, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("geo: parse lng %q: %w", fields[0], err)
		}
		lat, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("geo: parse lat %q: %w", fields[1], err)
		}
		poly = append(poly, Coordinate{Lat: lat, Lng: lng})
	}
	if len(poly) < 3 {
		return nil, fmt.Errorf("geo: WKT polygon has fewer than 3 points")
	}
	return poly, nil
}
