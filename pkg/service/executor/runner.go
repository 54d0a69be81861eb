package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/yutopp/scratchpad/pkg/command"
	"github.com/yutopp/scratchpad/pkg/domain"
)

type Config struct {
	// TempDir is where per-run directories are created. Empty means os.TempDir().
	TempDir string
	// Encoding names the text encoding of process output. Empty means UTF-8.
	Encoding string

	Logger *zap.Logger
}

// Runner runs source code through a profile. Calls to Run on the same Runner
// are serialized.
type Runner struct {
	config  Config
	logger  *zap.Logger
	decoder *decoder

	mu sync.Mutex
}

func NewRunner(c *Config) (*Runner, error) {
	var config Config
	if c != nil {
		config = *c
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	dec, err := newDecoder(config.Encoding)
	if err != nil {
		return nil, err
	}

	return &Runner{
		config:  config,
		logger:  logger,
		decoder: dec,
	}, nil
}

// ExecutionError reports that a program could not be started.
type ExecutionError struct {
	Argv []string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("failed to execute '%s': %v", strings.Join(e.Argv, " "), e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Run writes sourceCode to a private temporary directory, compiles it if the
// profile requires it and runs the result. A failed compile ends the run and
// its output is returned. Non-zero exit codes are not errors.
func (r *Runner) Run(ctx context.Context, p *domain.Profile, sourceCode string) (*domain.ExecutionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dirName, err := os.MkdirTemp(r.config.TempDir, "scratchpad-")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temporary directory")
	}
	defer func() {
		if err := os.RemoveAll(dirName); err != nil {
			r.logger.Warn("failed to remove temporary directory", zap.String("dir", dirName), zap.Error(err))
		}
	}()
	r.logger.Debug("directory created", zap.String("dir", dirName))

	if dirName, err = filepath.Abs(dirName); err != nil {
		return nil, errors.Wrap(err, "failed to resolve temporary directory")
	}

	sourcePath, err := writeSource(dirName, p.SourceFileExtension(), sourceCode)
	if err != nil {
		return nil, err
	}

	var executablePath string
	if p.RequiresCompile() {
		executablePath = filepath.Join(dirName, "executable"+executableSuffix())
	}

	task, err := command.Plan(p, sourcePath, executablePath)
	if err != nil {
		return nil, err
	}

	if task.Compile != nil {
		res, err := r.executePhase(ctx, domain.StageCompile, task.Compile)
		if err != nil {
			return nil, err
		}
		if res.ExitCode != 0 {
			return res, nil
		}
	}

	return r.executePhase(ctx, domain.StageRun, task.Run)
}

func (r *Runner) executePhase(ctx context.Context, stage domain.Stage, phase *domain.PhasedTask) (*domain.ExecutionResult, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, phase.Cmd[0], phase.Cmd[1:]...)
	cmd.Stdin = nil
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger := r.logger.With(zap.String("stage", string(stage)), zap.Strings("cmd", phase.Cmd))
	logger.Debug("start")
	start := time.Now()

	exitCode := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, &ExecutionError{Argv: phase.Cmd, Err: err}
		}
		exitCode = exitErr.ExitCode()
	}

	logger.Debug("done",
		zap.Int("exitCode", exitCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("stdout", stdout.Len()),
		zap.Int("stderr", stderr.Len()),
	)

	return &domain.ExecutionResult{
		Stdout:   r.decoder.decode(stdout.Bytes()),
		Stderr:   r.decoder.decode(stderr.Bytes()),
		ExitCode: exitCode,
		Stage:    stage,
	}, nil
}

func writeSource(dir, ext, sourceCode string) (string, error) {
	pattern := "source-*"
	if ext != "" {
		pattern += "." + ext
	}

	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", errors.Wrap(err, "failed to create source file")
	}
	defer f.Close()

	if _, err := f.WriteString(sourceCode); err != nil {
		return "", errors.Wrapf(err, "failed to write source file: %s", f.Name())
	}

	return f.Name(), nil
}

func executableSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}
