package history

import (
	"fmt"
	"math"
	"time"
)

// BuildTrendReport derives per-build deltas from snapshots ordered oldest
// first. AvgCycles is a moving average over window.
func BuildTrendReport(entry string, snapshots []Snapshot, window time.Duration) (TrendReport, error) {
	if len(snapshots) == 0 {
		return TrendReport{}, fmt.Errorf("no snapshots available")
	}

	points := make([]TrendPoint, 0, len(snapshots))
	for i, current := range snapshots {
		point := TrendPoint{
			Timestamp:  current.Timestamp,
			ID:         current.ID,
			NodeCount:  current.NodeCount,
			EdgeCount:  current.EdgeCount,
			CycleCount: current.CycleCount,
		}
		if i > 0 {
			prev := snapshots[i-1]
			point.DeltaNodes = current.NodeCount - prev.NodeCount
			point.DeltaEdges = current.EdgeCount - prev.EdgeCount
			point.DeltaExternals = current.ExternalCount - prev.ExternalCount
			point.DeltaCycles = current.CycleCount - prev.CycleCount
			if prev.NodeCount > 0 {
				point.NodeGrowthPct = round2(float64(point.DeltaNodes) / float64(prev.NodeCount) * 100)
			}
		}
		point.AvgCycles = round2(movingAverageCycles(snapshots, i, window))
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		Entry:         entry,
		Since:         snapshots[0].Timestamp,
		Until:         snapshots[len(snapshots)-1].Timestamp,
		Window:        window.String(),
		BuildCount:    len(points),
		Points:        points,
	}, nil
}

func movingAverageCycles(snapshots []Snapshot, index int, window time.Duration) float64 {
	if window <= 0 {
		return float64(snapshots[index].CycleCount)
	}
	cutoff := snapshots[index].Timestamp.Add(-window)
	total, count := 0, 0
	for i := index; i >= 0; i-- {
		if snapshots[i].Timestamp.Before(cutoff) {
			break
		}
		total += snapshots[i].CycleCount
		count++
	}
	return float64(total) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
