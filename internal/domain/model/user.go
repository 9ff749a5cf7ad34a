package model

// User is the read-side projection this core needs to deliver lifecycle
// notifications: the Telegram chat id and a display name for message text.
// Registration and profile management live outside this core.
type User struct {
	ID         string // UUID
	FullName   string
	TelegramID int64 // 0 when the user has no linked Telegram account
}
