package session

import (
	"os"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"gopkg.in/yaml.v3"

	"github.com/srg/izdose/internal/ble"
)

// ProductNameMarker identifies IZDOSE sensors among advertisements. The
// match is a case-insensitive substring test against the advertised name.
const ProductNameMarker = "IZDOSE"

// Fixed GATT identifiers of the sensor's event stream. They are product
// constants, not negotiated; a config file can override them for
// engineering builds.
const (
	DefaultServiceUUID        = "f9d7aa70-6c83-45e2-9b21-0d3f7e1c4a10"
	DefaultCharacteristicUUID = "f9d7aa71-6c83-45e2-9b21-0d3f7e1c4a10"
)

// Config tunes a Session. Zero values are filled from the default tags.
type Config struct {
	ServiceUUID        string        `yaml:"serviceUUID" default:"f9d7aa70-6c83-45e2-9b21-0d3f7e1c4a10"`
	CharacteristicUUID string        `yaml:"characteristicUUID" default:"f9d7aa71-6c83-45e2-9b21-0d3f7e1c4a10"`
	ConnectTimeout     time.Duration `yaml:"connectTimeout" default:"30s"`
	ReconnectBaseDelay time.Duration `yaml:"reconnectBaseDelay" default:"3s"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnectMaxDelay" default:"30s"`
	EventBufferSize    int           `yaml:"eventBufferSize" default:"256"`

	// CentralFactory creates the radio central on first use. Nil selects
	// the platform stack; tests inject a fake.
	CentralFactory func() (ble.Central, error) `yaml:"-"`
}

// ApplyDefaults fills unset fields from the struct's default tags.
func (c *Config) ApplyDefaults() {
	defaults.SetDefaults(c)
}

// LoadConfig reads a YAML config file and applies defaults to anything
// the file leaves out.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// MatchesProductName reports whether an advertised device name belongs to
// an IZDOSE sensor.
func MatchesProductName(name string) bool {
	if name == "" {
		return false
	}
	return strings.Contains(strings.ToUpper(name), ProductNameMarker)
}
