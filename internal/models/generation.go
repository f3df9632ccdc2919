package models

import "time"

// GenerationStatus — статус задания на генерацию.
type GenerationStatus string

const (
	// StatusPending единственный начальный статус.
	StatusPending GenerationStatus = "pending"
	// StatusCompleted означает успешную обработку, ResultPath заполнен.
	StatusCompleted GenerationStatus = "completed"
	// StatusFailed означает неудачную обработку, ResultPath пуст.
	StatusFailed GenerationStatus = "failed"
)

// IsTerminal сообщает, что из статуса больше нет переходов.
func (s GenerationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsValid сообщает, что статус входит в закрытое перечисление.
func (s GenerationStatus) IsValid() bool {
	return s == StatusPending || s.IsTerminal()
}

// Generation — задание пользователя на генерацию по исходному изображению и промпту.
type Generation struct {
	ID         string           `json:"id"`
	UserID     string           `json:"userId"`
	ImagePath  string           `json:"imagePath"`
	Prompt     string           `json:"prompt"`
	ResultPath *string          `json:"resultPath"`
	Status     GenerationStatus `json:"status"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// GenerationEvent публикуется при переходе задания в терминальный статус.
type GenerationEvent struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	Status     GenerationStatus `json:"status"`
	ResultPath *string          `json:"result_path,omitempty"`
	FinishedAt time.Time        `json:"finished_at"`
}
