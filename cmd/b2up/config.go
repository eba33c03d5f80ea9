package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/b2up/pkg/b2up/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage b2up configuration settings.

Configuration lives in a flat KEY=VALUE file under the XDG config
directory. Environment variables with the B2UP_ prefix override
individual settings for a single invocation.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display every configuration setting. Secrets are masked.`,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print a single configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value",
	Long: `Set one configuration key and persist the file.

The value is validated in context: for example setting ENGINE to an
unknown engine is rejected.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(configPath())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// secretKeys are masked in show output.
var secretKeys = map[string]bool{
	"B2_APP_KEY": true,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	rec, err := config.LoadRecord(configPath())
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := rec[k]
		if secretKeys[k] && v != "" {
			v = "********"
		}
		fmt.Printf("%s=%s\n", k, v)
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := strings.ToUpper(args[0])

	rec, err := config.LoadRecord(configPath())
	if err != nil {
		return err
	}

	v, ok := rec[key]
	if !ok {
		return fmt.Errorf("unknown key %q", key)
	}
	fmt.Println(v)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := strings.ToUpper(args[0])
	value := args[1]

	path := configPath()
	rec, err := config.LoadRecord(path)
	if err != nil {
		return err
	}

	if _, ok := rec[key]; !ok {
		if _, known := config.Default().ToRecord()[key]; !known {
			return fmt.Errorf("unknown key %q", key)
		}
	}
	rec[key] = value

	// Validate with the new value in place. A complaint about the key
	// being set is fatal; complaints about other keys only warn, so
	// switching ENGINE before its credentials exist still saves.
	if err := config.FromRecord(rec).Validate(); err != nil {
		if strings.Contains(err.Error(), key) {
			return err
		}
		fmt.Fprintf(os.Stderr, "Warning: configuration is incomplete: %v\n", err)
	}

	if err := config.SaveRecord(path, rec); err != nil {
		return err
	}
	fmt.Printf("%s=%s\n", key, value)
	return nil
}
