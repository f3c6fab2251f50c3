// Package plugintest provides a mock plugin.Executor for tests of code that runs plugins.
package plugintest

import (
	"context"

	"github.com/plugtest/plugtest/plugin"
	"github.com/plugtest/plugtest/stream"
	"github.com/stretchr/testify/mock"
)

// Executor is a testify mock implementing plugin.Executor.
type Executor struct {
	mock.Mock
}

func (m *Executor) Execute(ctx context.Context, script string, params plugin.Params, onLog plugin.LogFunc) (*plugin.Output, error) {
	args := m.Called(ctx, script, params, onLog)

	var out *plugin.Output
	if v := args.Get(0); v != nil {
		out = v.(*plugin.Output)
	}

	return out, args.Error(1)
}

// Emit returns a Run hook that writes lines through the call's log callback.
func Emit(lines ...string) func(mock.Arguments) {
	return func(args mock.Arguments) {
		onLog := args.Get(3).(plugin.LogFunc)
		for _, line := range lines {
			onLog(line)
		}
	}
}

// Streams builds an Output holding one stream per URL.
func Streams(urls ...string) *plugin.Output {
	out := &plugin.Output{Streams: make([]*stream.Stream, 0, len(urls))}
	for _, u := range urls {
		out.Streams = append(out.Streams, &stream.Stream{URL: u})
	}
	return out
}
