// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file at path, expands environment variable
// references, decodes it over the defaults, and applies the INDEX_NAME
// style environment overrides.
//
// A missing file is not an error: defaults plus environment overrides
// are returned, since CLI flag parsing and preference file discovery
// are external collaborators this repository does not own.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else {
			rawMap := make(map[string]any)
			if err := yaml.Unmarshal(data, &rawMap); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}

			expanded := expandEnvVars(rawMap)

			decoded := Default()
			if err := decodeConfig(expanded, decoded); err != nil {
				return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
			}
			cfg = decoded
		}
	}

	ApplyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func decodeConfig(raw map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}
