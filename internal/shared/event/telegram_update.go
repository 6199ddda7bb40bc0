package event

const TelegramUpdateDestination string = "telegram_update"
const TelegramUpdateConsumerIdentity string = "telegram_update_identity"

// TelegramUpdateMessage is the part of a Telegram update the identity module
// acts on. The gateway publishes only updates that carry a text message.
type TelegramUpdateMessage struct {
	UpdateID  int64  `json:"update_id"`
	ChatID    int64  `json:"chat_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	Text      string `json:"text"`
	SentAt    int64  `json:"sent_at"`
}
