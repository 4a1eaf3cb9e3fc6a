package repository

import "time"

// Now returns the current instant in UTC. A single indirection point so
// callers needing "now" for a row timestamp don't each import time
// directly, and so a future fake clock has one seam to patch.
func Now() time.Time {
	return time.Now().UTC()
}
