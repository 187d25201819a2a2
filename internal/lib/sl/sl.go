// Package sl содержит вспомогательные функции для структурированного
// логирования через slog.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
// Используется для единообразного вывода ошибок во всех сервисах.
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Reason возвращает slog.Attr с машинным кодом причины отказа.
func Reason(reason string) slog.Attr {
	return slog.Attr{
		Key:   "reason",
		Value: slog.StringValue(reason),
	}
}
