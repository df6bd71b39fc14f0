package domain

import "time"

type Author string

const (
	User   Author = "user"
	System Author = "system"
)

// Prompt is one turn of an assistant conversation.
type Prompt struct {
	Author Author `json:"author"`
	Prompt string `json:"prompt"`
}

// Media is one playable item. Values are copied into the queue, never
// shared, so an enqueued item cannot change under the player.
type Media struct {
	URL      string        `json:"url"`
	Title    string        `json:"title"`
	Duration time.Duration `json:"duration,omitempty"`
}

// PlayerState is the durable part of a media queue player.
type PlayerState struct {
	Queue   []Media       `json:"queue" state:"persist"`
	Elapsed time.Duration `json:"elapsed" state:"persist"`
}
