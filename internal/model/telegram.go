package model

// TelegramUpdate is the subset of the Bot API update payload the
// webhook cares about.
type TelegramUpdate struct {
	UpdateID int64            `json:"update_id"`
	Message  *TelegramMessage `json:"message"`
}

// TelegramMessage carries the trigger text and the originating chat.
type TelegramMessage struct {
	MessageID int64        `json:"message_id"`
	Text      string       `json:"text"`
	Chat      TelegramChat `json:"chat"`
}

// TelegramChat identifies the channel a terminal notification goes to.
type TelegramChat struct {
	ID int64 `json:"id"`
}

// WebhookResponse is returned to Telegram for every accepted delivery.
// Ignored is set when the update carried no extractable keyword.
type WebhookResponse struct {
	OK      bool   `json:"ok"`
	JobID   string `json:"jobId,omitempty"`
	Ignored bool   `json:"ignored,omitempty"`
	Reason  string `json:"reason,omitempty"`
}
