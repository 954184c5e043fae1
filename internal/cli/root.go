// Package cli implements the sira control-node command: `sira
// <manifest-file>...` (spec.md §6), cobra+viper configured for the
// SIRA_* environment prefix.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/edev/sira/internal/coordinator"
	"github.com/edev/sira/internal/manifestio"
	"github.com/edev/sira/internal/slog"
	"github.com/edev/sira/internal/transport"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// exitFunc is swapped out in tests, mirroring the teacher's exitFunc seam.
var exitFunc = os.Exit

var (
	cfgUser        string
	cfgKeyPath     string
	cfgPassphrase  string
	cfgPassword    string
	cfgKnownHosts  string
	cfgStrictHost  bool
	cfgPort        int
	cfgConnTimeout time.Duration
	cfgDebug       bool
)

var rootCmd = &cobra.Command{
	Use:     "sira <manifest-file>...",
	Short:   "Run manifest-driven actions across managed hosts over SSH",
	Version: Version,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runManifests(cmd.Context(), args)
	},
	SilenceUsage: true,
}

// Version is set via -ldflags at build time if desired.
var Version = "0.1.0"

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgUser, "user", "u", os.Getenv("USER"), "SSH username")
	rootCmd.PersistentFlags().StringVar(&cfgKeyPath, "key", filepath.Join(os.Getenv("HOME"), ".ssh", "id_ed25519"), "Path to SSH private key")
	rootCmd.PersistentFlags().StringVar(&cfgPassphrase, "passphrase", "", "Private key passphrase (or set SIRA_PASSPHRASE)")
	rootCmd.PersistentFlags().StringVar(&cfgPassword, "password", "", "SSH password (or set SIRA_PASSWORD)")
	rootCmd.PersistentFlags().StringVar(&cfgKnownHosts, "known-hosts", filepath.Join(os.Getenv("HOME"), ".ssh", "known_hosts"), "Path to known_hosts file")
	rootCmd.PersistentFlags().BoolVar(&cfgStrictHost, "strict-host-key", true, "Require host key verification")
	rootCmd.PersistentFlags().IntVar(&cfgPort, "port", 22, "Default SSH port for hosts without one")
	rootCmd.PersistentFlags().DurationVar(&cfgConnTimeout, "conn-timeout", 15*time.Second, "Per-host connection timeout")
	rootCmd.PersistentFlags().BoolVar(&cfgDebug, "debug", false, "Verbose development-mode logging")

	_ = viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
	_ = viper.BindPFlag("key", rootCmd.PersistentFlags().Lookup("key"))
	_ = viper.BindPFlag("passphrase", rootCmd.PersistentFlags().Lookup("passphrase"))
	_ = viper.BindPFlag("password", rootCmd.PersistentFlags().Lookup("password"))
	_ = viper.BindPFlag("known-hosts", rootCmd.PersistentFlags().Lookup("known-hosts"))
	_ = viper.BindPFlag("strict-host-key", rootCmd.PersistentFlags().Lookup("strict-host-key"))
	_ = viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("conn-timeout", rootCmd.PersistentFlags().Lookup("conn-timeout"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	viper.SetEnvPrefix("SIRA")
	viper.AutomaticEnv()

	cobra.OnInitialize(func() {
		if v := viper.GetString("user"); v != "" {
			cfgUser = v
		}
		if v := viper.GetString("key"); v != "" {
			cfgKeyPath = v
		}
		if v := viper.GetString("passphrase"); v != "" {
			cfgPassphrase = v
		}
		if v := viper.GetString("password"); v != "" {
			cfgPassword = v
		}
		if v := viper.GetString("known-hosts"); v != "" {
			cfgKnownHosts = v
		}
		if viper.IsSet("strict-host-key") {
			cfgStrictHost = viper.GetBool("strict-host-key")
		}
		if viper.IsSet("port") {
			cfgPort = viper.GetInt("port")
		}
		if v := viper.GetString("conn-timeout"); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				cfgConnTimeout = d
			}
		}
		if viper.IsSet("debug") {
			cfgDebug = viper.GetBool("debug")
		}
	})

	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and translates errors into the process exit
// codes spec.md §6 defines: 0 success, 1 any host failed, 2
// configuration/signature error before any action ran.
func Execute() {
	exitFunc(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	var hostsFailed *hostsFailedError
	if errors.As(err, &hostsFailed) {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Fprintln(os.Stderr, err)
	return 2
}

// hostsFailedError signals that the run completed but at least one host did
// not reach state ok, distinguishing it from a ConfigError/SignatureError
// that aborted before any action ran.
type hostsFailedError struct {
	failed int
	total  int
}

func (e *hostsFailedError) Error() string {
	return fmt.Sprintf("%d/%d hosts did not complete successfully", e.failed, e.total)
}

func runManifests(ctx context.Context, paths []string) error {
	log, err := slog.New(cfgDebug)
	if err != nil {
		return err
	}
	defer log.Sync()

	manifests, fs, err := manifestio.LoadManifests(paths)
	if err != nil {
		return err
	}
	plan, err := manifestio.Flatten(manifests, fs)
	if err != nil {
		return err
	}

	opts := transport.DialOptions{
		User:           cfgUser,
		KeyPath:        cfgKeyPath,
		Passphrase:     cfgPassphrase,
		Password:       cfgPassword,
		KnownHostsPath: cfgKnownHosts,
		StrictHostKey:  cfgStrictHost,
		DialTimeout:    cfgConnTimeout,
	}
	resolve := func(host string) (string, transport.DialOptions) {
		return fmt.Sprintf("%s:%d", host, cfgPort), opts
	}

	report := coordinator.Run(ctx, log, plan.Hosts, plan.ByHost, resolve)
	if !report.OK {
		failed := 0
		for _, o := range report.Outcomes {
			if o.Status.String() != "ok" {
				failed++
			}
		}
		return &hostsFailedError{failed: failed, total: len(report.Outcomes)}
	}
	return nil
}
