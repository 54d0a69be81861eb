package domain

import (
	"github.com/cockroachdb/errors"
)

// Profile describes how to turn source text of one language into process
// output. It is immutable once built.
type Profile struct {
	name                string
	languageID          string
	sourceFileExtension string
	requiresCompile     bool
	command             []string

	source string
}

type ProfileSpec struct {
	Name                string
	LanguageID          string
	SourceFileExtension string
	RequiresCompile     bool
	Command             []string

	// Source is the location the profile was read from, if any.
	Source string
}

func NewProfile(spec ProfileSpec) (*Profile, error) {
	if spec.Name == "" {
		return nil, errors.New("profile name must not be empty")
	}
	if len(spec.Command) == 0 {
		return nil, errors.Errorf("profile '%s' has an empty command", spec.Name)
	}

	return &Profile{
		name:                spec.Name,
		languageID:          spec.LanguageID,
		sourceFileExtension: spec.SourceFileExtension,
		requiresCompile:     spec.RequiresCompile,
		command:             append([]string(nil), spec.Command...),
		source:              spec.Source,
	}, nil
}

func (p *Profile) Name() string {
	return p.name
}

// LanguageID is an opaque id for syntax highlighting. It is not unique.
func (p *Profile) LanguageID() string {
	return p.languageID
}

// SourceFileExtension has no leading dot. It may be empty.
func (p *Profile) SourceFileExtension() string {
	return p.sourceFileExtension
}

func (p *Profile) RequiresCompile() bool {
	return p.requiresCompile
}

// Command returns a copy of the effective command template.
func (p *Profile) Command() []string {
	return append([]string(nil), p.command...)
}

func (p *Profile) Source() string {
	return p.source
}

// Task is the phased form of a profile bound to concrete paths.
// Compile is nil for profiles that run the source directly.
type Task struct {
	Compile *PhasedTask
	Run     *PhasedTask
}

type PhasedTask struct {
	Cmd []string
}

type Stage string

const (
	StageCompile Stage = "compile"
	StageRun     Stage = "run"
)

// ExecutionResult holds the output of the stage that ended a run.
type ExecutionResult struct {
	Stdout string
	Stderr string

	ExitCode int
	Stage    Stage
}
