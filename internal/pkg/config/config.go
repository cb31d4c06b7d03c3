package config

import (
	"time"

	"github.com/anicoll/smarthome-mcp/internal/pkg/model"
)

// Config holds the process settings taken from the command line.
type Config struct {
	ConfigFile       string
	StateFile        string
	LogLevel         string
	HTTPAddr         string
	HassConnectDelay time.Duration
	HassInsecure     bool
}

// Smarthome is the YAML document kept in the config file.
type Smarthome struct {
	MQTT          MQTTConfig               `yaml:"mqtt"`
	HomeAssistant HomeAssistantConfig      `yaml:"home_assistant"`
	Rules         []model.Rule             `yaml:"rules"`
	Devices       []model.DeviceDefinition `yaml:"devices"`
}

type MQTTConfig struct {
	Host     string `yaml:"host" env:"MQTT_HOST"`
	Port     int    `yaml:"port" env:"MQTT_PORT"`
	User     string `yaml:"user" env:"MQTT_USER"`
	Password string `yaml:"password" env:"MQTT_PASSWORD"`
	Base     string `yaml:"base,omitempty" env:"MQTT_BASE"`
}

type HomeAssistantConfig struct {
	Host  string `yaml:"host" env:"HASS_HOST"`
	Token string `yaml:"token" env:"HASS_TOKEN"`
}

// Connections are the backend settings after environment overrides.
type Connections struct {
	MQTT          MQTTConfig
	HomeAssistant HomeAssistantConfig
}
