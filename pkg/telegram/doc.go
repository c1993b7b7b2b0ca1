// Package telegram is a small Bot API client: getUpdates long polling,
// plain-text sendMessage and sendChatAction.
//
// Errors never include request URLs, which carry the bot token.
package telegram
