package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yutopp/scratchpad/pkg/service/executor"
)

var runFlags struct {
	tempDir  string
	encoding string
}

var runCmd = &cobra.Command{
	Use:   "run PROFILE [FILE]",
	Short: "Run source code with a profile",
	Long:  "Run source code with a profile. The code is read from FILE, or from stdin when FILE is omitted or \"-\".",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := lookupProfile(args[0])
		if err != nil {
			return err
		}

		source, err := readSource(cmd, args[1:])
		if err != nil {
			return err
		}

		runner, err := executor.NewRunner(&executor.Config{
			TempDir:  runFlags.tempDir,
			Encoding: runFlags.encoding,
			Logger:   logger,
		})
		if err != nil {
			return err
		}

		res, err := runner.Run(cmd.Context(), p, source)
		if err != nil {
			return err
		}
		logger.Info("finished",
			zap.String("profile", p.Name()),
			zap.String("stage", string(res.Stage)),
			zap.Int("exitCode", res.ExitCode),
		)

		fmt.Fprint(cmd.OutOrStdout(), res.Stdout)
		fmt.Fprint(cmd.ErrOrStderr(), res.Stderr)

		switch {
		case res.ExitCode < 0:
			// Killed by a signal.
			return &ExitCodeError{Code: 1}
		case res.ExitCode != 0:
			return &ExitCodeError{Code: res.ExitCode}
		}
		return nil
	},
}

func readSource(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", errors.Wrap(err, "failed to read stdin")
		}
		return string(b), nil
	}

	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", errors.Wrapf(err, "failed to read file: %s", args[0])
	}
	return string(b), nil
}

func init() {
	runCmd.Flags().StringVar(&runFlags.tempDir, "temp-dir", "", "directory for temporary files (default: system temp dir)")
	runCmd.Flags().StringVar(&runFlags.encoding, "encoding", "", "text encoding of program output (default: utf-8)")

	rootCmd.AddCommand(runCmd)
}
