package cmd

import (
	"os/exec"
	"strings"
)

// Executor runs external commands. Production code uses MakeExecutor; tests
// substitute cmd_test.MockCmdExec.
type Executor interface {
	Run(cmd *exec.Cmd) error
	// Start launches cmd without waiting for it to exit.
	Start(cmd *exec.Cmd) error
	Output(cmd *exec.Cmd) ([]byte, error)
}

type Exec struct{}

func (e Exec) Run(cmd *exec.Cmd) error {
	return cmd.Run()
}

func (e Exec) Start(cmd *exec.Cmd) error {
	return cmd.Start()
}

func (e Exec) Output(cmd *exec.Cmd) ([]byte, error) {
	return cmd.Output()
}

func MakeExecutor() Executor {
	return Exec{}
}

// ToString renders the command line for logs and error messages.
func ToString(cmd *exec.Cmd) string {
	if cmd == nil {
		return "<nil>"
	}
	return strings.Join(cmd.Args, " ")
}
