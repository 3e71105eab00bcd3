package engine

import (
	"sort"
	"strings"
	"sync"

	"github.com/alertmesh/correlation-engine/internal/models"
)

// A signature must account for strictly more than this share of window
// volume to be flagged as noise.
const noiseVolumeShare = 0.10

// NoiseDetector flags service:title signatures that dominate alert volume
// without carrying unique information. Only Update mutates the
// suppression set; IsNoise and Reduce are read-only.
type NoiseDetector struct {
	mu         sync.RWMutex
	signatures map[string]struct{}
}

// NewNoiseDetector creates a detector with an empty suppression set.
func NewNoiseDetector() *NoiseDetector {
	return &NoiseDetector{signatures: make(map[string]struct{})}
}

// Update recomputes noise signatures over a window of historical alerts
// and adds newly flagged signatures to the suppression set.
func (d *NoiseDetector) Update(alerts []*models.Alert) []models.NoisePattern {
	if len(alerts) == 0 {
		return nil
	}

	frequencies := make(map[string]int)
	for _, alert := range alerts {
		frequencies[alert.SignatureKey()]++
	}

	total := float64(len(alerts))
	flagged := make([]models.NoisePattern, 0)

	d.mu.Lock()
	for key, count := range frequencies {
		if float64(count) <= total*noiseVolumeShare {
			continue
		}
		d.signatures[key] = struct{}{}
		service, title := splitSignature(key)
		flagged = append(flagged, models.NoisePattern{
			Service:    service,
			Title:      title,
			Frequency:  count,
			Percentage: float64(count) / total * 100,
			Type:       "high_frequency",
		})
	}
	d.mu.Unlock()

	sort.Slice(flagged, func(i, j int) bool { return flagged[i].Frequency > flagged[j].Frequency })
	return flagged
}

// IsNoise reports whether an alert matches a known noise signature.
func (d *NoiseDetector) IsNoise(alert *models.Alert) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.signatures[alert.SignatureKey()]
	return ok
}

// Reduce filters out noise alerts, returning the kept alerts and the
// number suppressed. The suppression set is not mutated.
func (d *NoiseDetector) Reduce(alerts []*models.Alert) ([]*models.Alert, int) {
	kept := make([]*models.Alert, 0, len(alerts))
	suppressed := 0
	for _, alert := range alerts {
		if d.IsNoise(alert) {
			suppressed++
			continue
		}
		kept = append(kept, alert)
	}
	return kept, suppressed
}

func splitSignature(key string) (service, title string) {
	service, title, _ = strings.Cut(key, ":")
	return service, title
}
