package command

import (
	"context"
	"fmt"
	"mediabot/internal/core/port"
	"strings"
)

// Help prints one line per registered command.
type Help struct {
	data *helpData
}

type helpData struct{}

func newHelp() port.Command {
	return &Help{data: &helpData{}}
}

func (c *Help) Data() any {
	return c.data
}

func (c *Help) Process(ctx context.Context, _ string, cc *port.Context,
	_ port.Integrations) (bool, error) {
	sb := &strings.Builder{}
	for _, info := range cc.Commands {
		fmt.Fprintf(sb, "{c}{cp}%s{c} %s\n", info.Name, info.Help)
	}

	return false, cc.SendResponse(ctx, sb.String())
}
