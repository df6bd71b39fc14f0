// Package command holds the built-in command conversations of the bot.
// Each command declares the integrations it needs by name; the
// orchestrator injects them at dispatch time.
package command

import (
	"mediabot/internal/core/port"
	"mediabot/internal/integration/downforacross"
	"mediabot/internal/integration/openrouter"
	"mediabot/internal/integration/youtube"
)

// Definitions lists every built-in command for registration at startup.
func Definitions() []port.CommandDefinition {
	return []port.CommandDefinition{
		{
			Name: "about",
			Help: "information about this bot",
			New:  newAbout,
		},
		{
			Name:     "ask",
			Help:     "chat with a language model",
			Requires: []string{openrouter.Name},
			New:      newAsk,
		},
		{
			Name:     "cw",
			Help:     "search for and play crosswords from downforacross.com",
			Requires: []string{downforacross.Name},
			New:      newCW,
		},
		{
			Name: "help",
			Help: "print help text",
			New:  newHelp,
		},
		{
			Name: "leave",
			Help: "ask the bot to leave its voice channel",
			New:  newLeave,
		},
		{
			Name: "list",
			Help: "list queued media items",
			New:  newList,
		},
		{
			Name:     "play",
			Help:     "play media from the provided url",
			Requires: []string{youtube.Name},
			New:      newPlay,
		},
		{
			Name: "skip",
			Help: "remove items from the media queue",
			New:  newSkip,
		},
		{
			Name:     "yt",
			Help:     "search for and play media from youtube",
			Requires: []string{youtube.Name},
			New:      newYT,
		},
	}
}
