// Command sira-install provisions the signing-key half of a sira
// deployment: it generates the "manifest" and "action" key pairs and
// publishes their allowed-signers files under sconfig.ConfigDir. It does
// not create managed-node accounts or copy sira-client into place; print
// the sudoers entry it reports and fold it into whatever provisioning
// tooling already manages the fleet (spec.md §6, §4.B).
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/edev/sira/internal/install"
	"github.com/spf13/cobra"
)

// exitFunc is swapped out in tests, mirroring internal/cli's exitFunc seam.
var exitFunc = os.Exit

var siraUser string

var rootCmd = &cobra.Command{
	Use:          "sira-install",
	Short:        "Generate sira's signing keys and report the managed-node layout",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInstall(cmd.OutOrStdout(), siraUser)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&siraUser, "user", "sira", "account name the sira user runs as on managed nodes")
}

func main() {
	exitFunc(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd.SetArgs(args)
	rootCmd.SetErr(os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// keyInstaller is the subset of internal/install this command drives,
// seamed out so tests can exercise flag parsing and layout reporting
// without shelling out to the real ssh-keygen binary.
type keyInstaller interface {
	GenerateKeyPair(name string) error
	PublishAllowedSigners(name string) error
	PlanManagedNode(siraUser string) install.ManagedNodeLayout
}

type realInstaller struct{}

func (realInstaller) GenerateKeyPair(name string) error         { return install.GenerateKeyPair(name) }
func (realInstaller) PublishAllowedSigners(name string) error   { return install.PublishAllowedSigners(name) }
func (realInstaller) PlanManagedNode(user string) install.ManagedNodeLayout {
	return install.PlanManagedNode(user)
}

var installer keyInstaller = realInstaller{}

func runInstall(stdout io.Writer, user string) error {
	for _, name := range []string{"manifest", "action"} {
		if err := installer.GenerateKeyPair(name); err != nil {
			return fmt.Errorf("generating %s key: %w", name, err)
		}
		if err := installer.PublishAllowedSigners(name); err != nil {
			return fmt.Errorf("publishing %s allowed-signers: %w", name, err)
		}
	}

	layout := installer.PlanManagedNode(user)
	fmt.Fprintf(stdout, "sira-client belongs at %s, owned by root:root, mode 0700\n", layout.ClientBinaryDir)
	fmt.Fprintf(stdout, "add this line to /etc/sudoers.d/sira on every managed host:\n%s\n", layout.SudoersEntry)
	return nil
}
