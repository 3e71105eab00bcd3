package engine

import (
	"context"
	"sort"

	"github.com/alertmesh/correlation-engine/internal/models"
)

// Co-located alerts are near-certain to share a cause, hence the fixed
// high confidence.
const spatialConfidence = 0.9

// spatialCandidates groups alerts by service, then by host within each
// service. Any host-level group of two or more becomes a candidate.
func (e *Engine) spatialCandidates(_ context.Context, alerts []*models.Alert) ([]candidate, error) {
	byService := make(map[string]map[string][]*models.Alert)
	for _, alert := range alerts {
		hosts, ok := byService[alert.Service]
		if !ok {
			hosts = make(map[string][]*models.Alert)
			byService[alert.Service] = hosts
		}
		hosts[alert.Host] = append(hosts[alert.Host], alert)
	}

	services := make([]string, 0, len(byService))
	for service := range byService {
		services = append(services, service)
	}
	sort.Strings(services)

	candidates := make([]candidate, 0)
	for _, service := range services {
		hosts := byService[service]
		if groupSize(hosts) < 2 {
			continue
		}
		hostNames := make([]string, 0, len(hosts))
		for host := range hosts {
			hostNames = append(hostNames, host)
		}
		sort.Strings(hostNames)
		for _, host := range hostNames {
			group := hosts[host]
			if len(group) < 2 {
				continue
			}
			candidates = append(candidates, candidate{
				alerts:     group,
				ctype:      models.CorrelationSpatial,
				confidence: spatialConfidence,
			})
		}
	}
	return candidates, nil
}

func groupSize(hosts map[string][]*models.Alert) int {
	total := 0
	for _, group := range hosts {
		total += len(group)
	}
	return total
}
