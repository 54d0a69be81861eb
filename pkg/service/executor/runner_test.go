package executor

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/yutopp/scratchpad/pkg/command"
	"github.com/yutopp/scratchpad/pkg/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s is not available: %v", name, err)
	}
}

func newProfile(t *testing.T, compile bool, ext string, cmd ...string) *domain.Profile {
	t.Helper()
	p, err := domain.NewProfile(domain.ProfileSpec{
		Name:                "Test",
		LanguageID:          "test",
		SourceFileExtension: ext,
		RequiresCompile:     compile,
		Command:             cmd,
	})
	require.NoError(t, err)
	return p
}

func newTestRunner(t *testing.T, encoding string) (*Runner, string) {
	t.Helper()
	tempDir := t.TempDir()
	r, err := NewRunner(&Config{
		TempDir:  tempDir,
		Encoding: encoding,
		Logger:   zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return r, tempDir
}

func assertNoResidue(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_Python(t *testing.T) {
	requireTool(t, "python3")
	r, tempDir := newTestRunner(t, "")
	p := newProfile(t, false, "py", "python3", "{source_file_path}")

	res, err := r.Run(context.Background(), p, "print(1+1)")
	require.NoError(t, err)
	assert.Equal(t, "2\n", res.Stdout)
	assert.Equal(t, "", res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, domain.StageRun, res.Stage)
	assertNoResidue(t, tempDir)
}

func TestRun_Shell(t *testing.T) {
	requireTool(t, "sh")
	r, tempDir := newTestRunner(t, "")
	p := newProfile(t, false, "sh", "sh", "{source_file_path}")

	res, err := r.Run(context.Background(), p, "echo hello\necho oops >&2\nexit 3\n")
	require.NoError(t, err, "non-zero exit is a normal outcome")
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Equal(t, "oops\n", res.Stderr)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, domain.StageRun, res.Stage)
	assertNoResidue(t, tempDir)
}

func TestRun_KilledBySignal(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires POSIX signals")
	}
	requireTool(t, "sh")
	r, tempDir := newTestRunner(t, "")
	p := newProfile(t, false, "sh", "sh", "{source_file_path}")

	res, err := r.Run(context.Background(), p, "echo before\nkill -KILL $$\n")
	require.NoError(t, err)
	assert.Equal(t, "before\n", res.Stdout)
	assert.Negative(t, res.ExitCode)
	assert.Equal(t, domain.StageRun, res.Stage)
	assertNoResidue(t, tempDir)
}

func TestRun_SourceFileExtension(t *testing.T) {
	requireTool(t, "sh")
	r, _ := newTestRunner(t, "")

	res, err := r.Run(context.Background(), newProfile(t, false, "sh", "sh", "{source_file_path}"), `case "$(basename "$0")" in *.sh) echo yes;; *) echo no;; esac`)
	require.NoError(t, err)
	assert.Equal(t, "yes\n", res.Stdout)

	res, err = r.Run(context.Background(), newProfile(t, false, "", "sh", "{source_file_path}"), `case "$(basename "$0")" in *.*) echo dot;; *) echo none;; esac`)
	require.NoError(t, err)
	assert.Equal(t, "none\n", res.Stdout)
}

func TestRun_CompileFailureStopsRun(t *testing.T) {
	requireTool(t, "sh")
	r, tempDir := newTestRunner(t, "")
	// The "compiler" is sh running the source; the source reports an error and
	// leaves no artifact behind.
	p := newProfile(t, true, "sh", "sh", "{source_file_path}", "{executable_path}")

	res, err := r.Run(context.Background(), p, "echo compiling\necho 'syntax error' >&2\nexit 1\n")
	require.NoError(t, err)
	assert.Equal(t, domain.StageCompile, res.Stage)
	assert.Equal(t, 1, res.ExitCode)
	assert.Equal(t, "compiling\n", res.Stdout)
	assert.Equal(t, "syntax error\n", res.Stderr)
	assertNoResidue(t, tempDir)
}

func TestRun_CompileThenRun(t *testing.T) {
	requireTool(t, "sh")
	r, tempDir := newTestRunner(t, "")
	p := newProfile(t, true, "sh", "sh", "{source_file_path}", "{executable_path}")

	src := `printf '#!/bin/sh\necho compiled "$@"\n' > "$1"
chmod +x "$1"
echo compiler output
`
	res, err := r.Run(context.Background(), p, src)
	require.NoError(t, err)
	assert.Equal(t, domain.StageRun, res.Stage)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "compiled\n", res.Stdout, "artifact runs without arguments and compiler output is dropped")
	assertNoResidue(t, tempDir)
}

func TestRun_GCC(t *testing.T) {
	requireTool(t, "gcc")
	r, tempDir := newTestRunner(t, "")
	p := newProfile(t, true, "c", "gcc", "{source_file_path}", "-o", "{executable_path}")

	t.Run("syntax error", func(t *testing.T) {
		res, err := r.Run(context.Background(), p, "int main(void) { return 0 }\n")
		require.NoError(t, err)
		assert.Equal(t, domain.StageCompile, res.Stage)
		assert.NotEqual(t, 0, res.ExitCode)
		assert.NotEmpty(t, res.Stderr)
		assertNoResidue(t, tempDir)
	})

	t.Run("hello", func(t *testing.T) {
		res, err := r.Run(context.Background(), p, "#include <stdio.h>\nint main(void) { puts(\"hi\"); return 0; }\n")
		require.NoError(t, err)
		assert.Equal(t, domain.StageRun, res.Stage)
		assert.Equal(t, "hi\n", res.Stdout)
		assertNoResidue(t, tempDir)
	})
}

func TestRun_ProgramNotFound(t *testing.T) {
	r, tempDir := newTestRunner(t, "")
	p := newProfile(t, false, "x", "scratchpad-no-such-program", "{source_file_path}")

	res, err := r.Run(context.Background(), p, "anything")
	require.Error(t, err)
	assert.Nil(t, res)

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "scratchpad-no-such-program", execErr.Argv[0])
	assert.True(t, errors.Is(err, exec.ErrNotFound))
	assertNoResidue(t, tempDir)
}

func TestRun_MissingPlaceholder(t *testing.T) {
	r, tempDir := newTestRunner(t, "")
	p := newProfile(t, false, "py", "python3", "main.py")

	_, err := r.Run(context.Background(), p, "print(1)")
	var missing *command.MissingPlaceholderError
	require.True(t, errors.As(err, &missing))
	assertNoResidue(t, tempDir)
}

func TestRun_Idempotent(t *testing.T) {
	requireTool(t, "sh")
	r, tempDir := newTestRunner(t, "")
	p := newProfile(t, false, "sh", "sh", "{source_file_path}")

	first, err := r.Run(context.Background(), p, "echo 2")
	require.NoError(t, err)
	assertNoResidue(t, tempDir)

	second, err := r.Run(context.Background(), p, "echo 2")
	require.NoError(t, err)
	assertNoResidue(t, tempDir)

	assert.Equal(t, first, second)
}

func TestRun_Serialized(t *testing.T) {
	requireTool(t, "sh")
	r, tempDir := newTestRunner(t, "")
	p := newProfile(t, false, "sh", "sh", "{source_file_path}")

	var wg sync.WaitGroup
	results := make([]*domain.ExecutionResult, 4)
	errs := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.Run(context.Background(), p, "echo ok")
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, "ok\n", results[i].Stdout)
	}
	assertNoResidue(t, tempDir)
}

func TestRun_Encoding(t *testing.T) {
	requireTool(t, "sh")
	p := newProfile(t, false, "sh", "sh", "{source_file_path}")

	t.Run("windows-1252", func(t *testing.T) {
		r, _ := newTestRunner(t, "windows-1252")
		res, err := r.Run(context.Background(), p, `printf 'caf\351'`)
		require.NoError(t, err)
		assert.Equal(t, "café", res.Stdout)
	})

	t.Run("invalid utf-8 is replaced", func(t *testing.T) {
		r, _ := newTestRunner(t, "")
		res, err := r.Run(context.Background(), p, `printf 'caf\351'`)
		require.NoError(t, err)
		assert.Equal(t, "caf�", res.Stdout)
	})
}

func TestNewRunner(t *testing.T) {
	r, err := NewRunner(nil)
	require.NoError(t, err)
	assert.NotNil(t, r)

	_, err = NewRunner(&Config{Encoding: "no-such-encoding"})
	assert.Error(t, err)
}
