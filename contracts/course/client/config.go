package client

import (
	"os"
	"strings"

	"go.dedis.ch/coursemarket/contracts/course"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// Entry is a course of the catalogue.
type Entry struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Slug  string `yaml:"slug,omitempty"`
}

// GetID returns the identifier of the course in the contract.
func (e Entry) GetID() (course.ID, error) {
	return course.ParseID(e.ID)
}

// Config is the configuration of a client.
type Config struct {
	// Network is the network the client is expected to be connected to.
	Network string `yaml:"network"`

	// Admins is the list of the Keccak-256 hashes of the administrator
	// accounts, in hexadecimal.
	Admins []string `yaml:"admins"`

	// Courses is the catalogue of the courses on sale.
	Courses []Entry `yaml:"courses"`
}

// LoadConfig reads the YAML configuration of the file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, xerrors.Errorf("failed to read config: %v", err)
	}

	return ParseConfig(data)
}

// ParseConfig returns the configuration of the YAML data.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config

	err := yaml.UnmarshalStrict(data, &cfg)
	if err != nil {
		return Config{}, xerrors.Errorf("malformed config: %v", err)
	}

	for _, entry := range cfg.Courses {
		_, err = entry.GetID()
		if err != nil {
			return Config{}, xerrors.Errorf("course '%s': %v", entry.Title, err)
		}
	}

	return cfg, nil
}

// Save writes the configuration as YAML to the file.
func (cfg Config) Save(path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return xerrors.Errorf("failed to marshal config: %v", err)
	}

	err = os.WriteFile(path, data, 0600)
	if err != nil {
		return xerrors.Errorf("failed to write config: %v", err)
	}

	return nil
}

func (cfg Config) adminSet() map[string]struct{} {
	admins := make(map[string]struct{}, len(cfg.Admins))
	for _, admin := range cfg.Admins {
		admins[normalizeHex(admin)] = struct{}{}
	}

	return admins
}

func normalizeHex(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))

	if !strings.HasPrefix(text, "0x") {
		text = "0x" + text
	}

	return text
}
