package xray

// Traffic is the per-identity byte delta reported by one stats query. The
// counters are since-last-read: Xray zeroes its internal values after a
// query issued with reset.
type Traffic struct {
	Identity string `json:"identity"`
	Up       int64  `json:"up"`
	Down     int64  `json:"down"`
}
