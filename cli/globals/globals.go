/*
	slip-dfu-uploader
	Copyright (c) 2023 Arduino LLC.  All right reserved.

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package globals

import (
	"fmt"

	"github.com/arduino/go-paths-helper"
	"github.com/embedded-lab/slip-dfu-uploader/ports"
	"gopkg.in/yaml.v3"
)

var (
	// LogLevel is the level selected with --log-level
	LogLevel = "info"
	// Verbose is true when logs are printed on stdout
	Verbose bool
	// ConfigFile is the path given with --config, if any
	ConfigFile string
)

// Config holds the settings that can be stored in the config file.
type Config struct {
	VendorID  string `yaml:"vendor_id"`
	ProductID string `yaml:"product_id"`
	Objcopy   string `yaml:"objcopy"`
}

// DefaultConfig returns the settings used without a config file
func DefaultConfig() *Config {
	return &Config{
		VendorID:  ports.DefaultVID,
		ProductID: ports.DefaultPID,
	}
}

// LoadConfig reads the config file at path. Missing settings keep their
// default value. A nil path returns the default config.
func LoadConfig(path *paths.Path) (*Config, error) {
	config := DefaultConfig()
	if path == nil {
		return config, nil
	}
	data, err := path.ReadFile()
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return config, nil
}
