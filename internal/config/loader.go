package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const reactionFile = "reaction.yaml"

// LoadReaction loads the reaction duel configuration.
// Search order: customPath -> ~/.reaction/configs/reaction.yaml ->
// ./configs/reaction.yaml -> embedded default -> hardcoded default.
// Keys missing from a file keep their default values.
func LoadReaction(customPath string) (ReactionConfig, error) {
	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return ReactionConfig{}, fmt.Errorf("config: failed to read %s: %w", customPath, err)
		}
		cfg, err := parseReaction(data)
		if err != nil {
			return ReactionConfig{}, fmt.Errorf("config: failed to parse %s: %w", customPath, err)
		}
		if err := cfg.Validate(); err != nil {
			return ReactionConfig{}, err
		}
		return cfg, nil
	}

	// Try user config directory, then the local configs directory
	for _, path := range []string{userConfigPath(reactionFile), filepath.Join("configs", reactionFile)} {
		if path == "" {
			continue
		}
		if data, err := os.ReadFile(path); err == nil {
			if cfg, err := parseReaction(data); err == nil && cfg.Validate() == nil {
				return cfg, nil
			}
		}
	}

	// Use embedded default YAML
	cfg, err := parseReaction(defaultReactionYAML)
	if err != nil || cfg.Validate() != nil {
		return DefaultReactionConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

func parseReaction(data []byte) (ReactionConfig, error) {
	cfg := DefaultReactionConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ReactionConfig{}, err
	}
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".reaction", "configs", filename)
}
