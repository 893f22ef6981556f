package providers

import (
	"encoding/json"
	"errors"
	"os"

	log "github.com/sirupsen/logrus"
)

// ProviderConfig is one provider section of providers.jsonc. The file is
// owned by the user and other parts of the application; this package only
// ever reads it.
type ProviderConfig struct {
	APIKey  string `json:"apiKey,omitempty"`
	BaseURL string `json:"baseUrl,omitempty"`
}

type Config map[string]ProviderConfig

// Load parses the JSONC provider map. A missing file is reported through the
// second return value rather than an error; a malformed file degrades to an
// empty config with a warning.
func Load(path string) (Config, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).WithField("path", path).Warn("failed to read provider config")
		}
		return Config{}, false
	}

	var cfg Config
	if err := json.Unmarshal(stripComments(raw), &cfg); err != nil {
		log.WithError(err).WithField("path", path).Warn("failed to parse provider config")
		return Config{}, false
	}
	if cfg == nil {
		cfg = Config{}
	}
	return cfg, true
}
