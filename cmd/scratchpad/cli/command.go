package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yutopp/scratchpad/pkg/command"
)

var commandFlags struct {
	source     string
	executable string
}

var commandCmd = &cobra.Command{
	Use:   "command PROFILE",
	Short: "Print the command a profile expands to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := lookupProfile(args[0])
		if err != nil {
			return err
		}

		argv, err := command.Generate(p, commandFlags.source, commandFlags.executable)
		if err != nil {
			return err
		}

		quoted := make([]string, 0, len(argv))
		for _, a := range argv {
			quoted = append(quoted, strconv.Quote(a))
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(quoted, " "))
		return nil
	},
}

func init() {
	commandCmd.Flags().StringVar(&commandFlags.source, "source", "", "source file path")
	commandCmd.Flags().StringVar(&commandFlags.executable, "executable", "", "executable path (compiled profiles only)")
	_ = commandCmd.MarkFlagRequired("source")

	rootCmd.AddCommand(commandCmd)
}
