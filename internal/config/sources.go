package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"flipscout/ingestion-service/internal/model"
)

// sourcesFile is the YAML shape of the optional source seed file:
//
//	sources:
//	  - name: Jiji Kenya
//	    platform_type: general
//	    base_url: https://jiji.co.ke
//	    search_paths: ["", "/cars", "/houses-apartments-for-sale"]
//	    scrape_frequency_hours: 12
//	    is_active: true
type sourcesFile struct {
	Sources []sourceSeed `yaml:"sources"`
}

type sourceSeed struct {
	Name                 string   `yaml:"name"`
	PlatformType         string   `yaml:"platform_type"`
	BaseURL              string   `yaml:"base_url"`
	SearchPaths          []string `yaml:"search_paths"`
	ScrapeFrequencyHours int      `yaml:"scrape_frequency_hours"`
	IsActive             *bool    `yaml:"is_active"`
}

// LoadSources parses a YAML source seed file and validates each entry.
func LoadSources(path string) ([]model.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}

	sources := make([]model.Source, 0, len(file.Sources))
	for i, s := range file.Sources {
		if s.Name == "" || s.BaseURL == "" {
			return nil, fmt.Errorf("source %d: name and base_url are required", i)
		}
		platform, ok := model.ParseAssetType(s.PlatformType)
		if !ok {
			return nil, fmt.Errorf("source %q: unknown platform_type %q", s.Name, s.PlatformType)
		}
		freq := s.ScrapeFrequencyHours
		if freq < 1 {
			freq = 24
		}
		active := true
		if s.IsActive != nil {
			active = *s.IsActive
		}
		sources = append(sources, model.Source{
			Name:                 s.Name,
			PlatformType:         platform,
			BaseURL:              s.BaseURL,
			SearchPaths:          s.SearchPaths,
			ScrapeFrequencyHours: freq,
			IsActive:             active,
		})
	}

	return sources, nil
}
