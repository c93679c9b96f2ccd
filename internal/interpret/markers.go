package interpret

// markers places the first len(positions) insights on the preset positions.
// The placement is illustrative and says nothing about where a condition is.
func markers(positions []Position, insights []Insight) []AreaMarker {
	n := min(len(insights), len(positions), MaxMarkers)
	out := make([]AreaMarker, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, AreaMarker{
			ID:       i + 1,
			Label:    insights[i].Condition,
			Position: positions[i],
		})
	}
	return out
}
