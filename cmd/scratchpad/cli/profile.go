package cli

import (
	"fmt"
	"runtime"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yutopp/scratchpad/pkg/command"
	"github.com/yutopp/scratchpad/pkg/profile"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List language profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles, err := loadProfiles()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tLANGUAGE ID\tEXTENSION\tCOMPILE\tSOURCE")
		for _, p := range profiles {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", p.Name(), p.LanguageID(), p.SourceFileExtension(), p.RequiresCompile(), p.Source())
		}
		return w.Flush()
	},
}

var newProfileFlags struct {
	languageID      string
	extension       string
	compile         bool
	command         []string
	platformCommand []string
}

var newProfileCmd = &cobra.Command{
	Use:   "new NAME",
	Short: "Create a language profile in the user profile directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		loader := profile.NewLoader(profile.WithLogger(logger))
		profiles, err := loader.Default(profilesDir)
		if err != nil {
			return err
		}
		for _, p := range profiles {
			if p.Name() == name {
				return errors.Errorf("profile already exists: '%s' (%s)", name, p.Source())
			}
		}

		doc := &profile.Document{
			Name:                name,
			LanguageID:          newProfileFlags.languageID,
			SourceFileExtension: newProfileFlags.extension,
			Compile:             newProfileFlags.compile,
			Command: map[string][]string{
				"default": newProfileFlags.command,
			},
		}
		if len(newProfileFlags.platformCommand) > 0 {
			doc.Command[runtime.GOOS] = newProfileFlags.platformCommand
		}

		path := profile.DocumentPath(profilesDir, name)
		p, err := loader.FromDocument(path, doc)
		if err != nil {
			return err
		}
		if err := command.Check(p); err != nil {
			return errors.Wrapf(err, "invalid command for profile '%s'", name)
		}

		path, err = profile.Save(profilesDir, doc)
		if err != nil {
			return err
		}
		logger.Info("profile saved", zap.String("name", name), zap.String("path", path))

		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var checkProfilesCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the command templates of all profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles, err := loadProfiles()
		if err != nil {
			return err
		}

		failed := 0
		for _, p := range profiles {
			if err := command.Check(p); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "NG  %s: %v\n", p.Name(), err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK  %s\n", p.Name())
		}
		if failed > 0 {
			return errors.Errorf("%d of %d profiles have invalid commands", failed, len(profiles))
		}
		return nil
	},
}

func init() {
	newProfileCmd.Flags().StringVar(&newProfileFlags.languageID, "language-id", "", "language id for syntax highlighting")
	newProfileCmd.Flags().StringVar(&newProfileFlags.extension, "extension", "", "source file extension without the leading dot")
	newProfileCmd.Flags().BoolVar(&newProfileFlags.compile, "compile", false, "compile the source before running the executable")
	newProfileCmd.Flags().StringArrayVar(&newProfileFlags.command, "command", nil, "command template token (repeatable)")
	newProfileCmd.Flags().StringArrayVar(&newProfileFlags.platformCommand, "platform-command", nil, "command template token used only on this operating system (repeatable)")
	_ = newProfileCmd.MarkFlagRequired("command")

	profilesCmd.AddCommand(newProfileCmd)
	profilesCmd.AddCommand(checkProfilesCmd)
	rootCmd.AddCommand(profilesCmd)
}
