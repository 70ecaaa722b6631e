package feed

import (
	"math"
	"strconv"
)

// formatJSONNumber renders a JSON number the way it appeared in the document
// where possible: integers without a decimal point, everything else with the
// shortest representation that round-trips.
func formatJSONNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
