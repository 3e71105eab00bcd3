package engine

import (
	"github.com/alertmesh/correlation-engine/internal/models"
)

// mergeCandidates resolves overlapping candidates into pairwise-disjoint
// groups: candidates sharing at least one alert id are unioned
// transitively. A merged group takes the most frequent correlation type
// among its constituents (first-seen order breaks ties) and the mean of
// their confidences; lone candidates pass through unchanged.
func mergeCandidates(candidates []candidate) []candidate {
	if len(candidates) == 0 {
		return nil
	}

	idSets := make([]map[string]struct{}, len(candidates))
	for i, cand := range candidates {
		set := make(map[string]struct{}, len(cand.alerts))
		for _, alert := range cand.alerts {
			set[alert.ID] = struct{}{}
		}
		idSets[i] = set
	}

	used := make([]bool, len(candidates))
	merged := make([]candidate, 0, len(candidates))

	for i := range candidates {
		if used[i] {
			continue
		}
		used[i] = true
		group := []int{i}
		groupIDs := make(map[string]struct{}, len(idSets[i]))
		for id := range idSets[i] {
			groupIDs[id] = struct{}{}
		}

		// Transitive closure: keep sweeping until no unprocessed
		// candidate overlaps the accumulated id set.
		for changed := true; changed; {
			changed = false
			for j := range candidates {
				if used[j] || !overlaps(groupIDs, idSets[j]) {
					continue
				}
				used[j] = true
				group = append(group, j)
				for id := range idSets[j] {
					groupIDs[id] = struct{}{}
				}
				changed = true
			}
		}

		if len(group) == 1 {
			merged = append(merged, candidates[i])
			continue
		}
		merged = append(merged, combine(candidates, group))
	}

	return merged
}

func overlaps(a, b map[string]struct{}) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for id := range a {
		if _, ok := b[id]; ok {
			return true
		}
	}
	return false
}

// combine folds constituent candidates into one: unique alerts in
// first-seen order, dominant correlation type, mean confidence.
func combine(candidates []candidate, group []int) candidate {
	seenAlerts := make(map[string]struct{})
	alerts := make([]*models.Alert, 0)

	typeCounts := make(map[models.CorrelationType]int)
	typeOrder := make([]models.CorrelationType, 0)
	confidenceSum := 0.0

	for _, idx := range group {
		cand := candidates[idx]
		for _, alert := range cand.alerts {
			if _, ok := seenAlerts[alert.ID]; ok {
				continue
			}
			seenAlerts[alert.ID] = struct{}{}
			alerts = append(alerts, alert)
		}
		if _, ok := typeCounts[cand.ctype]; !ok {
			typeOrder = append(typeOrder, cand.ctype)
		}
		typeCounts[cand.ctype]++
		confidenceSum += cand.confidence
	}

	dominant := typeOrder[0]
	for _, ctype := range typeOrder {
		if typeCounts[ctype] > typeCounts[dominant] {
			dominant = ctype
		}
	}

	return candidate{
		alerts:     alerts,
		ctype:      dominant,
		confidence: confidenceSum / float64(len(group)),
	}
}
