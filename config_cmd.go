package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/drivedrawers/gdrive-go/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration after all overrides",
		RunE:  runConfigShow,
	}
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file",
		RunE:  runConfigInit,
	}
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	if resolvedCfg == nil {
		return fmt.Errorf("no configuration loaded")
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(resolvedCfg)
	}

	return config.RenderEffective(resolvedCfg, os.Stdout)
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if env := config.ReadEnvOverrides(); env.ConfigPath != "" {
		path = env.ConfigPath
	}

	if flagConfigPath != "" {
		path = flagConfigPath
	}

	if path == "" {
		return fmt.Errorf("cannot determine config file path")
	}

	if err := config.WriteDefaultTemplate(path); err != nil {
		return err
	}

	statusf("Wrote %s\n", path)

	return nil
}
