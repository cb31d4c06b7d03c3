package model

import (
	"strings"

	"github.com/samber/lo"
)

// DeviceDefinition is a device as written in the configuration file.
type DeviceDefinition struct {
	Name          string    `yaml:"name" json:"name"`
	Room          Room      `yaml:"room" json:"room"`
	EntityID      string    `yaml:"entity_id,omitempty" json:"entity_id,omitempty"`
	StateType     StateType `yaml:"state_type,omitempty" json:"state_type,omitempty"`
	StateTemplate string    `yaml:"state_template,omitempty" json:"state_template,omitempty"`
	MqttStat      string    `yaml:"mqtt_stat,omitempty" json:"mqtt_stat,omitempty"`
}

// Key is the case-insensitive identity of the device.
func (d DeviceDefinition) Key() string {
	return NormalizeName(d.Name)
}

// Domain returns the hub domain of the entity id, the part before the first dot.
func (d DeviceDefinition) Domain() Domain {
	domain, _, _ := strings.Cut(d.EntityID, ".")
	return Domain(domain)
}

// Controllable reports whether the entity id belongs to a domain state changes can be sent to.
func (d DeviceDefinition) Controllable() bool {
	if d.EntityID == "" {
		return false
	}
	return lo.ContainsBy(ControllableDomains, func(domain Domain) bool {
		return strings.HasPrefix(d.EntityID, domain.String()+".")
	})
}

func NormalizeName(name string) string {
	return strings.ToUpper(name)
}

type Rule struct {
	Text string `yaml:"text" json:"text"`
}

// HubEntityState is an entity as pushed by Home Assistant.
type HubEntityState struct {
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes,omitempty"`
}
