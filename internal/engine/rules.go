package engine

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alertmesh/correlation-engine/internal/models"
)

// rulePackFile is the YAML root structure for a correlation rule pack.
type rulePackFile struct {
	Rules []rulePackEntry `yaml:"rules"`
}

type rulePackEntry struct {
	ID                  string            `yaml:"id"`
	Name                string            `yaml:"name"`
	Description         string            `yaml:"description"`
	CorrelationType     string            `yaml:"correlation_type"`
	Conditions          map[string]string `yaml:"conditions"`
	TimeWindow          time.Duration     `yaml:"time_window"`
	ConfidenceThreshold float64           `yaml:"confidence_threshold"`
	Enabled             *bool             `yaml:"enabled"`
}

// LoadRulePack reads correlation rules from a YAML file. An empty path or
// a missing file yields no rules, leaving the engine's defaults in place.
func LoadRulePack(path string) ([]models.CorrelationRule, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read rule pack: %w", err)
	}

	var pack rulePackFile
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("parse rule pack: %w", err)
	}

	rules := make([]models.CorrelationRule, 0, len(pack.Rules))
	now := time.Now().UTC()
	for _, entry := range pack.Rules {
		if entry.ID == "" {
			return nil, fmt.Errorf("rule pack entry missing id")
		}
		ctype, err := parseCorrelationType(entry.CorrelationType)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", entry.ID, err)
		}
		enabled := true
		if entry.Enabled != nil {
			enabled = *entry.Enabled
		}
		rules = append(rules, models.CorrelationRule{
			ID:                  entry.ID,
			Name:                entry.Name,
			Description:         entry.Description,
			CorrelationType:     ctype,
			Conditions:          entry.Conditions,
			TimeWindow:          entry.TimeWindow,
			ConfidenceThreshold: entry.ConfidenceThreshold,
			Enabled:             enabled,
			CreatedAt:           now,
		})
	}
	return rules, nil
}

func parseCorrelationType(value string) (models.CorrelationType, error) {
	switch models.CorrelationType(value) {
	case models.CorrelationTemporal, models.CorrelationSpatial, models.CorrelationSimilarity,
		models.CorrelationDependency, models.CorrelationPattern:
		return models.CorrelationType(value), nil
	default:
		return "", fmt.Errorf("invalid correlation type %q", value)
	}
}
