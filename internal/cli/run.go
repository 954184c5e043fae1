package cli

import "github.com/spf13/cobra"

// runCmd is an explicit alias for the root command's default behavior, so
// sira can grow sibling verbs without breaking `sira run <manifest>...`
// scripts that spell it out.
var runCmd = &cobra.Command{
	Use:   "run <manifest-file>...",
	Short: "Run manifest-driven actions across managed hosts over SSH",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runManifests(cmd.Context(), args)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
}
