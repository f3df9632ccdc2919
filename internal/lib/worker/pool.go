// Package worker реализует пул фоновых задач внутри процесса.
//
// Задача запускается в собственной горутине сразу после Go и ждёт свободный слот
// семафора, поэтому вызывающий код никогда не блокируется. Задачи получают
// контекст пула, а не контекст запроса: завершение HTTP-запроса их не отменяет.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/magabrotheeeer/generation-service/internal/lib/sl"
)

// ErrPoolClosed возвращается из Go после начала остановки пула.
var ErrPoolClosed = errors.New("worker pool is closed")

// DefaultSize — число одновременно выполняемых задач по умолчанию.
const DefaultSize = 10

// Task единица фоновой работы.
type Task func(ctx context.Context)

// Pool ограничивает число одновременно выполняемых задач.
type Pool struct {
	sem    chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	log    *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool создаёт пул на size одновременных задач.
func NewPool(size int, log *slog.Logger) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		sem:    make(chan struct{}, size),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
}

// Go планирует задачу и сразу возвращает управление.
func (p *Pool) Go(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		select {
		case p.sem <- struct{}{}:
		case <-p.ctx.Done():
			return
		}
		defer func() { <-p.sem }()

		defer func() {
			if r := recover(); r != nil {
				p.log.Error("background task panicked", sl.Err(fmt.Errorf("panic: %v", r)))
			}
		}()

		task(p.ctx)
	}()
	return nil
}

// Shutdown запрещает новые задачи и ждёт завершения запущенных.
//
// Если ctx истекает раньше, контекст задач отменяется и Shutdown возвращает ошибку ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}
