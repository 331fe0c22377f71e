package main

import (
	"time"

	"github.com/spf13/viper"
)

func initViperDefaults() {
	// Global
	viper.SetDefault("file_state_dir", "~/.vaultrelay")

	// Telegram
	viper.SetDefault("telegram.base_url", "https://api.telegram.org")
	viper.SetDefault("telegram.poll_timeout", 30*time.Second)
	viper.SetDefault("telegram.max_concurrency", 3)
	viper.SetDefault("telegram.forward_timeout", 30*time.Second)
	viper.SetDefault("telegram.allowed_chat_ids", []string{})

	// Vault forwarding
	viper.SetDefault("vault.trailer", "#from-telegram")
	viper.SetDefault("vault.confirm_delete_after", 3*time.Second)

	// Logging
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.add_source", false)
	viper.SetDefault("trace", false)
}
