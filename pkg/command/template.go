// Package command expands profile command templates into argument vectors.
package command

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/yutopp/scratchpad/pkg/domain"
)

const (
	SourceFilePath = "{source_file_path}"
	ExecutablePath = "{executable_path}"
)

// ErrInvalidInvocation is returned when the executable path is given for a
// profile that does not compile, or omitted for one that does.
var ErrInvalidInvocation = errors.New("invalid command invocation")

type MissingPlaceholderError struct {
	Profile     string
	Placeholder string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("command template of profile '%s' lacks %s", e.Profile, e.Placeholder)
}

// Generate substitutes placeholder tokens of p's template. A token is
// replaced only when it equals a placeholder exactly. An empty
// executablePath means absent.
func Generate(p *domain.Profile, sourceFilePath, executablePath string) ([]string, error) {
	compile := p.RequiresCompile()
	switch {
	case compile && executablePath == "":
		return nil, errors.Wrapf(ErrInvalidInvocation, "profile '%s' compiles and needs an executable path", p.Name())
	case !compile && executablePath != "":
		return nil, errors.Wrapf(ErrInvalidInvocation, "profile '%s' does not compile but got an executable path", p.Name())
	}

	tmpl := p.Command()
	cmd := make([]string, 0, len(tmpl))
	var hasSource, hasExecutable bool
	for _, token := range tmpl {
		switch {
		case token == SourceFilePath:
			cmd = append(cmd, sourceFilePath)
			hasSource = true
		case compile && token == ExecutablePath:
			cmd = append(cmd, executablePath)
			hasExecutable = true
		default:
			cmd = append(cmd, token)
		}
	}

	if !hasSource {
		return nil, &MissingPlaceholderError{Profile: p.Name(), Placeholder: SourceFilePath}
	}
	if compile && !hasExecutable {
		return nil, &MissingPlaceholderError{Profile: p.Name(), Placeholder: ExecutablePath}
	}

	return cmd, nil
}

// Plan binds p to concrete paths. Compiled profiles run the artifact
// directly after the compile phase.
func Plan(p *domain.Profile, sourceFilePath, executablePath string) (*domain.Task, error) {
	cmd, err := Generate(p, sourceFilePath, executablePath)
	if err != nil {
		return nil, err
	}

	if !p.RequiresCompile() {
		return &domain.Task{
			Run: &domain.PhasedTask{Cmd: cmd},
		}, nil
	}

	return &domain.Task{
		Compile: &domain.PhasedTask{Cmd: cmd},
		Run:     &domain.PhasedTask{Cmd: []string{executablePath}},
	}, nil
}

// Check reports template errors of p without running anything.
func Check(p *domain.Profile) error {
	var exe string
	if p.RequiresCompile() {
		exe = "main.exe"
	}
	_, err := Generate(p, "main."+p.SourceFileExtension(), exe)
	return err
}
