package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/anicoll/smarthome-mcp/internal/pkg/model"
)

var (
	ErrDeviceExists = errors.New("device already exists")
	ErrInvalid      = errors.New("invalid configuration")
)

// Store owns the configuration document and rewrites the whole file on every change.
type Store struct {
	path string

	mu  sync.RWMutex
	doc Smarthome
}

func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var doc Smarthome
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := validate(doc); err != nil {
		return nil, err
	}
	return &Store{path: path, doc: doc}, nil
}

func validate(doc Smarthome) error {
	seen := make(map[string]struct{}, len(doc.Devices))
	for i, d := range doc.Devices {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("%w: device %d has no name", ErrInvalid, i)
		}
		if _, exists := seen[d.Key()]; exists {
			return fmt.Errorf("%w: duplicate device name %q", ErrInvalid, d.Name)
		}
		seen[d.Key()] = struct{}{}
	}
	return nil
}

// Connections returns the backend settings with MQTT_* and HASS_* environment
// variables applied. The overrides are never written back to the file.
func (s *Store) Connections() (Connections, error) {
	s.mu.RLock()
	conns := Connections{MQTT: s.doc.MQTT, HomeAssistant: s.doc.HomeAssistant}
	s.mu.RUnlock()

	if err := env.Parse(&conns.MQTT); err != nil {
		return Connections{}, fmt.Errorf("mqtt env: %w", err)
	}
	if err := env.Parse(&conns.HomeAssistant); err != nil {
		return Connections{}, fmt.Errorf("home assistant env: %w", err)
	}
	return conns, nil
}

func (s *Store) Devices() []model.DeviceDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.DeviceDefinition(nil), s.doc.Devices...)
}

func (s *Store) Rules() []model.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc.Rules == nil {
		return []model.Rule{}
	}
	return append([]model.Rule(nil), s.doc.Rules...)
}

func (s *Store) AddRule(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Rules = append(s.doc.Rules, model.Rule{Text: text})
	return s.save()
}

// AddDevice appends def unless a device with the same entity id is already configured.
func (s *Store) AddDevice(def model.DeviceDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lo.ContainsBy(s.doc.Devices, func(d model.DeviceDefinition) bool {
		return d.EntityID == def.EntityID
	}) {
		return fmt.Errorf("%w: %s", ErrDeviceExists, def.EntityID)
	}
	s.doc.Devices = append(s.doc.Devices, def)
	return s.save()
}

// save must be called with mu held.
func (s *Store) save() error {
	data, err := yaml.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
