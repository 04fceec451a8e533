package toolchain

import (
	"context"
	"sync"
)

// fakeRunner records commands and answers Output calls from a table keyed by Command.String().
type fakeRunner struct {
	mu       sync.Mutex
	commands []Command
	outputs  map[string][]byte
	errs     map[string]error
}

func (f *fakeRunner) Output(_ context.Context, cmd Command) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.commands = append(f.commands, cmd)

	if err := f.errs[cmd.String()]; err != nil {
		return nil, err
	}

	return f.outputs[cmd.String()], nil
}

func (f *fakeRunner) Run(ctx context.Context, cmd Command) error {
	_, err := f.Output(ctx, cmd)
	return err
}
