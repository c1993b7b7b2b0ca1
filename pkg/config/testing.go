package config

// NewTestConfig returns a valid configuration with placeholder credentials,
// intended for tests in this and other packages.
func NewTestConfig() *Config {
	cfg := Default()
	cfg.Telegram.Token = "123456:test-token"
	cfg.Provider.APIKey = "sk-test-key"
	return cfg
}
