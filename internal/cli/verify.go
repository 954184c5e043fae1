package cli

import (
	"fmt"
	"os"

	"github.com/edev/sira/internal/manifestio"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <manifest-file>...",
	Short: "Load and signature-check manifests without running any actions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manifests, fs, err := manifestio.LoadManifests(args)
		if err != nil {
			return err
		}
		plan, err := manifestio.Flatten(manifests, fs)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "OK: %d manifest(s), %d host(s)\n", len(manifests), len(plan.Hosts))
		return nil
	},
}
