package geometry

import (
	"strconv"
	"strings"

	"github.com/wedding-planner/backend/internal/models"
	"gonum.org/v1/gonum/spatial/r2"
)

// SamplePath returns points spaced every interval along the polyline,
// always including the first and last vertex.
func SamplePath(pts []models.Point, interval float64) []models.Point {
	if len(pts) == 0 {
		return nil
	}
	if interval <= 0 || len(pts) == 1 {
		return append([]models.Point(nil), pts...)
	}

	out := []models.Point{pts[0]}
	carry := 0.0 // distance travelled since the last emitted sample
	for i := 1; i < len(pts); i++ {
		a, b := vec(pts[i-1]), vec(pts[i])
		seg := r2.Sub(b, a)
		segLen := r2.Norm(seg)
		if segLen == 0 {
			continue
		}
		dir := r2.Scale(1/segLen, seg)
		pos := interval - carry
		for pos <= segLen {
			out = append(out, point(r2.Add(a, r2.Scale(pos, dir))))
			pos += interval
		}
		carry = segLen - (pos - interval)
	}
	last := pts[len(pts)-1]
	if out[len(out)-1] != last {
		out = append(out, last)
	}
	return out
}

// PathData renders the polyline as an SVG path string.
func PathData(pts []models.Point) string {
	var sb strings.Builder
	for i, p := range pts {
		if i == 0 {
			sb.WriteString("M ")
		} else {
			sb.WriteString(" L ")
		}
		sb.WriteString(strconv.FormatFloat(p.X, 'f', 2, 64))
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(p.Y, 'f', 2, 64))
	}
	return sb.String()
}

// NearPath reports whether any sample of the polyline lies within radius of p.
func NearPath(pts []models.Point, p models.Point, radius, interval float64) bool {
	for _, s := range SamplePath(pts, interval) {
		if Distance(s, p) <= radius {
			return true
		}
	}
	return false
}
