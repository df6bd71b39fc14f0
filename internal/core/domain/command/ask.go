package command

import (
	"context"
	"fmt"
	"mediabot/internal/core/domain"
	"mediabot/internal/core/port"
	"mediabot/internal/integration/openrouter"
	"strings"

	"github.com/rs/zerolog/log"
)

// chatModel is the slice of the openrouter integration the ask command
// uses.
type chatModel interface {
	Chat(ctx context.Context, prompts []domain.Prompt) (string, error)
}

// Ask runs an ongoing conversation with a language model. The exchange
// history is carried between turns; sending "done" ends it.
type Ask struct {
	data *askData
}

type askData struct {
	Prompts []domain.Prompt `json:"prompts" state:"persist"`
}

func newAsk() port.Command {
	return &Ask{data: &askData{}}
}

func (c *Ask) Data() any {
	return c.data
}

func (c *Ask) Process(ctx context.Context, message string, cc *port.Context,
	deps port.Integrations) (bool, error) {
	model, ok := deps[openrouter.Name].(chatModel)
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrNotRegistered, openrouter.Name)
	}

	prompt := message
	if len(c.data.Prompts) == 0 {
		// first turn carries the command name
		_, prompt = domain.SplitCommand(message)
	}

	if strings.EqualFold(strings.TrimSpace(prompt), "done") {
		return false, cc.SendResponse(ctx, "Conversation ended.")
	}

	if prompt == "" {
		return false, domain.Userf("ask needs a prompt, e.g. {c}{cp}ask why is the sky blue{c}")
	}

	log.Debug().Int("turns", len(c.data.Prompts)).Msg("processing ask")

	c.data.Prompts = append(c.data.Prompts, domain.Prompt{
		Author: domain.User,
		Prompt: prompt,
	})

	reply, err := model.Chat(ctx, c.data.Prompts)
	if err != nil {
		return false, err
	}

	c.data.Prompts = append(c.data.Prompts, domain.Prompt{
		Author: domain.System,
		Prompt: reply,
	})

	if err := cc.SendResponse(ctx, reply); err != nil {
		return false, err
	}

	return true, nil
}
