package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/CosmoTheDev/cgconsole/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and manage cgconsole configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration (secrets redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(redacted(*cfg))
	},
}

// redacted masks tokens and passwords. Slices are copied so cfg is untouched.
func redacted(cfg config.Config) config.Config {
	mask := func(s, placeholder string) string {
		if s == "" {
			return ""
		}
		return placeholder
	}
	cfg.Git.GitHub = append([]config.GitHubConfig(nil), cfg.Git.GitHub...)
	for i := range cfg.Git.GitHub {
		cfg.Git.GitHub[i].Token = mask(cfg.Git.GitHub[i].Token, "ghp-***")
	}
	cfg.Git.GitLab = append([]config.GitLabConfig(nil), cfg.Git.GitLab...)
	for i := range cfg.Git.GitLab {
		cfg.Git.GitLab[i].Token = mask(cfg.Git.GitLab[i].Token, "glpat-***")
	}
	cfg.Notify.Slack.WebhookURL = mask(cfg.Notify.Slack.WebhookURL, "https://hooks.slack.com/***")
	cfg.Notify.Telegram.BotToken = mask(cfg.Notify.Telegram.BotToken, "tg-***")
	cfg.Notify.Email.Password = mask(cfg.Notify.Email.Password, "***")
	cfg.Notify.Webhook.Secret = mask(cfg.Notify.Webhook.Secret, "***")
	return cfg
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the path to the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.ConfigPath(cfgFile)
		if err != nil {
			return err
		}
		fmt.Println(p)
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.ConfigPath(cfgFile)
		if err != nil {
			return err
		}
		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "nano"
		}
		fmt.Printf("Opening %s with %s...\n", p, editor)
		c := exec.Command(editor, p) // #nosec G204 -- editor comes from $EDITOR
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		return c.Run()
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configPathCmd, configEditCmd, configUICmd)
}
