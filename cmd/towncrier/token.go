package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

func newTokenCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Store the Discord bot token in the config file",
		Long:  "Prompts for the bot token without echoing it and writes it to the config file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "towncrier.yaml", "path to Towncrier config file")
	return cmd
}

func runToken(cmd *cobra.Command, configPath string) error {
	fmt.Fprint(cmd.OutOrStdout(), "Discord bot token: ")
	token, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if len(token) == 0 {
		return fmt.Errorf("token is empty")
	}

	// Preserve whatever else is in the file; only the token changes.
	doc := map[string]interface{}{}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", configPath, err)
		}
	}
	section, _ := doc["discord"].(map[string]interface{})
	if section == nil {
		section = map[string]interface{}{}
	}
	section["token"] = string(token)
	doc["discord"] = section

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(configPath, out, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", configPath, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", configPath)
	return nil
}
