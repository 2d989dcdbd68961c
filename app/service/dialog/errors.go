package dialog

import "errors"

var ErrExternalService = errors.New("completion service failed")

const (
	GreetingText = "Привет! Я бот-ассистент. Чем могу помочь?"
	TryLaterText = "Извините, сейчас не получается ответить. Попробуйте, пожалуйста, чуть позже."
	ApologyText  = "Извините, не удалось оформить заявку из-за технической ошибки. Попробуйте, пожалуйста, позже или напишите нам напрямую."
)
