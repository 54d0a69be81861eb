package cli

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yutopp/scratchpad/pkg/domain"
	"github.com/yutopp/scratchpad/pkg/logging"
	"github.com/yutopp/scratchpad/pkg/profile"
)

var (
	profilesDir string
	logLevel    string
	logFormat   string

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "scratchpad",
	Short: "Run code snippets through language profiles",

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(cmd.ErrOrStderr(), logLevel, logFormat)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	defaultDir, err := profile.UserDir()
	if err != nil {
		defaultDir = ""
	}

	rootCmd.PersistentFlags().StringVar(&profilesDir, "profiles-dir", defaultDir, "user language profile directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")
}

// ExitCodeError carries the exit code of a program run by the tool.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *ExitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadProfiles() ([]*domain.Profile, error) {
	return profile.NewLoader(profile.WithLogger(logger)).Default(profilesDir)
}

func lookupProfile(name string) (*domain.Profile, error) {
	profiles, err := loadProfiles()
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, errors.Errorf("profile not found: '%s'", name)
}
