package bot

import "errors"

// ErrEmptyToken is returned when no session is injected and the bot token is empty.
var ErrEmptyToken = errors.New("bot token must be set")
