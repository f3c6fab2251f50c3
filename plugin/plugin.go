// Package plugin runs plugin scripts against the stream lookup contract: given a script and
// test parameters it calls the script's GetStreams entry point in an isolated Lua VM, reports
// everything the script logs, and returns the streams it found.
package plugin

import (
	"context"
	"errors"

	"github.com/plugtest/plugtest/stream"
)

// ErrNoEntryPoint is returned when a script does not define GetStreams.
var ErrNoEntryPoint = errors.New("script does not define GetStreams")

// LogFunc receives one log line emitted by a running script. It is called in emission order
// and only for the execution it was handed to.
type LogFunc func(line string)

// Output is the result of a successful execution.
type Output struct {
	Streams []*stream.Stream `json:"streams"`
}

// Executor runs a script against params, reporting log lines through onLog.
type Executor interface {
	Execute(ctx context.Context, script string, params Params, onLog LogFunc) (*Output, error)
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, script string, params Params, onLog LogFunc) (*Output, error)

func (f ExecutorFunc) Execute(ctx context.Context, script string, params Params, onLog LogFunc) (*Output, error) {
	return f(ctx, script, params, onLog)
}
