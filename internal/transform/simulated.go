// Package transform содержит реализацию преобразования изображения по промпту,
// имитирующую работу внешней модели.
package transform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"
)

// ErrSimulatedFailure означает случайный отказ имитируемой модели.
var ErrSimulatedFailure = errors.New("simulated processing error")

const resultPrefix = "result_"

// Simulated ждёт случайное время, с заданной вероятностью завершается ошибкой,
// иначе копирует исходное изображение рядом с ним как результат.
type Simulated struct {
	minDelay    time.Duration
	maxDelay    time.Duration
	failureRate float64
	roll        func() float64
}

// NewSimulated создаёт преобразователь. failureRate задаётся в диапазоне [0, 1].
func NewSimulated(minDelay, maxDelay time.Duration, failureRate float64) *Simulated {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Simulated{
		minDelay:    minDelay,
		maxDelay:    maxDelay,
		failureRate: failureRate,
		roll:        rand.Float64,
	}
}

// Transform возвращает путь к результату, отличный от imagePath.
func (s *Simulated) Transform(ctx context.Context, imagePath, _ string) (string, error) {
	const op = "transform.Transform"

	timer := time.NewTimer(s.delay())
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	case <-timer.C:
	}

	if s.roll() < s.failureRate {
		return "", fmt.Errorf("%s: %w", op, ErrSimulatedFailure)
	}

	resultPath := ResultPath(imagePath)
	if err := copyFile(imagePath, resultPath); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return resultPath, nil
}

func (s *Simulated) delay() time.Duration {
	spread := s.maxDelay - s.minDelay
	if spread <= 0 {
		return s.minDelay
	}
	return s.minDelay + time.Duration(s.roll()*float64(spread))
}

// ResultPath строит путь результата: тот же каталог, имя с префиксом result_.
func ResultPath(imagePath string) string {
	return filepath.Join(filepath.Dir(imagePath), resultPrefix+filepath.Base(imagePath))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
