package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hollyfell/vaultrelay/internal/statepaths"
)

type starterConfig struct {
	FileStateDir string `yaml:"file_state_dir"`
	Telegram     struct {
		BotToken       string   `yaml:"bot_token"`
		PollTimeout    string   `yaml:"poll_timeout"`
		MaxConcurrency int      `yaml:"max_concurrency"`
		AllowedChatIDs []string `yaml:"allowed_chat_ids"`
	} `yaml:"telegram"`
	Vault struct {
		Trailer            string `yaml:"trailer"`
		ConfirmDeleteAfter string `yaml:"confirm_delete_after"`
	} `yaml:"vault"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

func newInitCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(outPath)
			if path == "" {
				path = filepath.Join(statepaths.FileStateDir(), "config.yaml")
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config already exists: %s", path)
			}

			var cfg starterConfig
			cfg.FileStateDir = "~/.vaultrelay"
			cfg.Telegram.BotToken = "<your bot token from @BotFather>"
			cfg.Telegram.PollTimeout = "30s"
			cfg.Telegram.MaxConcurrency = 3
			cfg.Telegram.AllowedChatIDs = []string{}
			cfg.Vault.Trailer = "#from-telegram"
			cfg.Vault.ConfirmDeleteAfter = "3s"
			cfg.Logging.Level = "info"
			cfg.Logging.Format = "text"

			raw, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return err
			}
			if err := os.WriteFile(path, raw, 0o600); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "Where to write the config (default: <file_state_dir>/config.yaml).")
	return cmd
}
