package domain

import "time"

// ModeIncentiveRule parameterizes the reward draw for a single travel mode
// within a market's active TripIncentiveRule.
type ModeIncentiveRule struct {
	Distance float64 `json:"distance"`
	Mean     float64 `json:"mean"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Beta     float64 `json:"beta"`
}

// TripIncentiveRule is the active, per-market reward configuration. Exactly
// one rule is active per market at a time; updates replace it atomically
// (upsert keyed by market) while prior versions are retained in an audit
// table.
type TripIncentiveRule struct {
	Market    string                       `json:"market"`
	D         float64                      `json:"d"`
	H         float64                      `json:"h"`
	D1        float64                      `json:"d1"`
	D2        float64                      `json:"d2"`
	L         float64                      `json:"l"`
	W         float64                      `json:"w"`
	MC        float64                      `json:"mc"`
	Modes     map[TravelMode]ModeIncentiveRule `json:"modes"`
	Version   int                          `json:"version"`
	ActivatedOn time.Time                  `json:"activated_on"`
}

// ServiceProfile is a market's WKT-polygon service area, used to geofence
// incentive eligibility.
type ServiceProfile struct {
	Market string `json:"market"`
	WKT    string `json:"wkt"`
}
