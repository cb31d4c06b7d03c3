package main

import (
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/anicoll/smarthome-mcp/cmd"
)

func main() {
	app := &cli.App{
		Name:   "smarthome-mcp",
		Usage:  "MCP tool server bridging MQTT and Home Assistant",
		Action: cmd.SmarthomeCommand,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				EnvVars: []string{"CONFIG_FILE"},
				Value:   "config.yml",
			},
			&cli.StringFlag{
				Name:    "state-file",
				EnvVars: []string{"STATE_FILE"},
				Value:   "data/state.yml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "INFO",
			},
			&cli.DurationFlag{
				Name:    "hass-delay",
				EnvVars: []string{"HASS_CONNECT_DELAY"},
				Value:   time.Second,
			},
			&cli.StringFlag{
				Name:    "http-addr",
				EnvVars: []string{"HTTP_ADDR"},
				Usage:   "serve MCP over streamable HTTP instead of stdio",
			},
			&cli.BoolFlag{
				Name:    "hass-insecure",
				EnvVars: []string{"HASS_INSECURE"},
				Value:   false,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
