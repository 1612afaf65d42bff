package model

// ScanLocation is the coarse geo info the backend attaches to a scan.
type ScanLocation struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city,omitempty"`
	Country string  `json:"country,omitempty"`
}

// ScanEvent is one recorded scan of a tracked project's redirect URL.
// Read-only: created server-side, never mutated by the client.
type ScanEvent struct {
	Timestamp string        `json:"timestamp"`
	Location  *ScanLocation `json:"location,omitempty"`
	Device    string        `json:"device,omitempty"`
	IP        string        `json:"ip,omitempty"`
}

// Analytics is the per-project scan summary returned by the backend.
type Analytics struct {
	ScanCount  int         `json:"scanCount"`
	ScanEvents []ScanEvent `json:"scanEvents"`
}

// Label renders "City, Country" with whichever parts are present.
func (l ScanLocation) Label() string {
	switch {
	case l.City != "" && l.Country != "":
		return l.City + ", " + l.Country
	case l.City != "":
		return l.City
	case l.Country != "":
		return l.Country
	default:
		return "Scan Location"
	}
}

// RoundedLat returns the latitude rounded to one decimal. Coordinates are
// coarsened before display so an individual scan cannot be pinpointed.
func (l ScanLocation) RoundedLat() float64 { return round1(l.Lat) }

// RoundedLon returns the longitude rounded to one decimal.
func (l ScanLocation) RoundedLon() float64 { return round1(l.Lon) }

func round1(v float64) float64 {
	if v < 0 {
		return float64(int64(v*10-0.5)) / 10
	}
	return float64(int64(v*10+0.5)) / 10
}
