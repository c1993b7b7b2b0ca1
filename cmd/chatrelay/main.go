// Chatrelay is a Telegram bot that relays chat messages to an
// OpenAI-compatible completion API and replies with the answer.
//
// Each (chat, user) pair gets its own bounded conversation history and its
// own sliding-window rate limit. State lives in memory only.
//
// Usage:
//
//	# Start the bot, credentials from the environment
//	TELEGRAM_TOKEN=... API_KEY=... chatrelay run
//
//	# Start with a configuration file
//	chatrelay run --config /etc/chatrelay/config.yaml
//
//	# Check configuration without starting
//	chatrelay validate --config config.yaml
//
//	# Show version information
//	chatrelay version
package main

func main() {
	Execute()
}
