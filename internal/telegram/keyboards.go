package telegram

import "github.com/go-telegram/bot/models"

// CallbackStatus re-renders the status message
const CallbackStatus = "status"

// StatusKeyboard returns the keyboard under status messages
func StatusKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🔄 Refresh", CallbackData: CallbackStatus},
			},
		},
	}
}
