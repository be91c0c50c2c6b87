package cmd_test

import (
	"os/exec"
	"sync"

	"github.com/minecraftwithtwink/Modpack-Updater/cmd"
)

type MockCmdExec struct {
	RunFunc    func(cmd *exec.Cmd) error
	StartFunc  func(cmd *exec.Cmd) error
	OutputFunc func(cmd *exec.Cmd) ([]byte, error)

	mu   sync.Mutex
	runs []string
}

func (e *MockCmdExec) Run(c *exec.Cmd) error {
	e.record(c)
	return e.RunFunc(c)
}

func (e *MockCmdExec) Start(c *exec.Cmd) error {
	e.record(c)
	return e.StartFunc(c)
}

func (e *MockCmdExec) Output(c *exec.Cmd) ([]byte, error) {
	e.record(c)
	return e.OutputFunc(c)
}

// Commands returns every command line seen so far, in call order.
func (e *MockCmdExec) Commands() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.runs))
	copy(out, e.runs)
	return out
}

func (e *MockCmdExec) record(c *exec.Cmd) {
	e.mu.Lock()
	e.runs = append(e.runs, cmd.ToString(c))
	e.mu.Unlock()
}

// NewMockExecutor returns a *MockCmdExec with no-op defaults.
// Callers may override RunFunc, StartFunc and OutputFunc before use.
func NewMockExecutor() *MockCmdExec {
	return &MockCmdExec{
		RunFunc: func(cmd *exec.Cmd) error {
			return nil
		},
		StartFunc: func(cmd *exec.Cmd) error {
			return nil
		},
		OutputFunc: func(cmd *exec.Cmd) ([]byte, error) {
			return nil, nil
		},
	}
}
