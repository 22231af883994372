// Package engine is the boundary to the opaque chat engine. The engine
// speaks newline-less text frames: commands go out as
// {"corr":<id>,"cmd":<text>}, replies and push events come back as the
// response envelope {"corr":<id?>,"resp":{...}}. Everything above this
// package works with the raw payload bytes; decoding lives in the chat
// package.
package engine

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned once the engine handle is gone. The receive loop
// treats it as a clean-stop signal, not a crash.
var ErrClosed = errors.New("engine: closed")

// Engine sends commands and delivers asynchronous events.
//
// SendCmd transmits one command under the given correlation id and blocks
// until the correlated reply arrives; callers serialize SendCmd externally.
// RecvMsgWait blocks up to timeout for the next push event and returns
// (nil, nil) on timeout so the receive loop can retry forever.
type Engine interface {
	SendCmd(ctx context.Context, corrID, cmd string) ([]byte, error)
	RecvMsgWait(ctx context.Context, timeout time.Duration) ([]byte, error)
	Close() error
}
