// Package telegram wraps the Telegram Bot API client: sending text
// messages, long polling for updates and reading webhook deliveries.
package telegram
