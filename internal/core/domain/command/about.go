package command

import (
	"context"
	"fmt"
	"mediabot/internal/core/port"
	"runtime"
	"runtime/debug"
)

const aboutTemplate = `mediabot@{c}%s{c}
compiled with %s for %s-%s`

// About reports the running version and build information.
type About struct {
	data *aboutData
}

type aboutData struct {
	Version string `json:"version" state:"persist"`
}

func newAbout() port.Command {
	return &About{data: &aboutData{}}
}

func (c *About) Data() any {
	return c.data
}

func (c *About) Process(ctx context.Context, _ string, cc *port.Context,
	_ port.Integrations) (bool, error) {
	c.data.Version = "unknown"

	var goos, goarch string
	if info, ok := debug.ReadBuildInfo(); ok {
		c.data.Version = info.Main.Version

		for _, setting := range info.Settings {
			switch setting.Key {
			case "GOOS":
				goos = setting.Value
			case "GOARCH":
				goarch = setting.Value
			}
		}
	}

	return false, cc.SendResponse(ctx,
		fmt.Sprintf(aboutTemplate, c.data.Version, runtime.Version(), goos, goarch))
}
