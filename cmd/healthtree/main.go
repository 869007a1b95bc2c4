package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/healthtree/internal/cliconfig"
)

const longHelp = `
Run a tree of managed components and report its aggregated health.

Each component has a lifecycle (initialize, shutdown) and a health state. A
parent reports the worst state among itself and everything below it, so the
root tells you at a glance whether the whole tree is usable.

The tree is described in the config file under [tree]; settings come from the
file, HEALTHTREE_* environment variables and flags, in increasing priority.
`

var exampleUsage = strings.TrimSpace(`
  healthtree run --config ./healthtree.toml
  healthtree check --config ./healthtree.toml --log-level warn
  healthtree status --state-dir /var/lib/healthtree
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// app carries the configuration shared by every subcommand.
type app struct {
	cfg     cliconfig.Config
	cfgPath string
}

func main() {
	a := &app{cfg: cliconfig.DefaultConfig()}

	root := &cobra.Command{
		Use:           "healthtree",
		Short:         "Run a component tree and report its aggregated health",
		Long:          strings.TrimSpace(longHelp),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.healthtree/config.toml)")
	flags.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level: debug, info, warn or error")
	flags.StringVar(&a.cfg.LogFormat, "log-format", a.cfg.LogFormat, "log format: console or json")
	flags.StringVar(&a.cfg.StateDir, "state-dir", a.cfg.StateDir, "directory for status.json (default: $HOME/.healthtree)")
	flags.DurationVar(&a.cfg.ProbeTimeout, "probe-timeout", a.cfg.ProbeTimeout, "timeout of a single HTTP probe")

	root.AddCommand(a.runCommand(), a.checkCommand(), a.statusCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "healthtree: %v\n", err)
		os.Exit(1)
	}
}

// load merges the config file and environment into a.cfg without overriding changed flags.
func (a *app) load(cmd *cobra.Command) error {
	cfgFile := a.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&a.cfg, fc, changed); err != nil {
			return err
		}
	} else if a.cfgPath != "" {
		return fmt.Errorf("config file %s not found", a.cfgPath)
	}

	// HEALTHTREE_* override the file but not explicit flags.
	return cliconfig.ApplyEnvConfig(&a.cfg, changed)
}

// loadValid is load followed by Validate.
func (a *app) loadValid(cmd *cobra.Command) error {
	if err := a.load(cmd); err != nil {
		return err
	}
	return a.cfg.Validate()
}
