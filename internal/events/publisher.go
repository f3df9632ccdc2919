// Package events публикует события о завершении заданий на генерацию в RabbitMQ.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/magabrotheeeer/generation-service/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/generation-service/internal/models"
)

// Publisher отправляет события о терминальных статусах в exchange генераций.
// Канал AMQP не потокобезопасен, поэтому публикации сериализуются.
type Publisher struct {
	mu       sync.Mutex
	ch       rabbitmq.Publisher
	exchange string
	now      func() time.Time
}

// NewPublisher создаёт издателя поверх канала ch.
func NewPublisher(ch rabbitmq.Publisher, exchange string) *Publisher {
	return &Publisher{
		ch:       ch,
		exchange: exchange,
		now:      time.Now,
	}
}

// NotifyGenerationFinished публикует событие с ключом маршрутизации, равным статусу задания.
func (p *Publisher) NotifyGenerationFinished(ctx context.Context, g *models.Generation) error {
	const op = "events.NotifyGenerationFinished"

	if !g.Status.IsTerminal() {
		return fmt.Errorf("%s: generation %s is not finished", op, g.ID)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	event := models.GenerationEvent{
		ID:         g.ID,
		UserID:     g.UserID,
		Status:     g.Status,
		ResultPath: g.ResultPath,
		FinishedAt: p.now().UTC(),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := rabbitmq.PublishMessage(p.ch, p.exchange, string(g.Status), event); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Nop ничего не публикует. Используется, когда брокер не настроен.
type Nop struct{}

// NotifyGenerationFinished реализует контракт уведомителя без побочных эффектов.
func (Nop) NotifyGenerationFinished(context.Context, *models.Generation) error {
	return nil
}
