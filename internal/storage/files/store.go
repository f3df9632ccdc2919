// Package files хранит загруженные изображения в локальном каталоге.
package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrTooLarge возвращается, если содержимое превышает допустимый размер.
var ErrTooLarge = errors.New("file is too large")

const uploadPrefix = "upload_"

// Store управляет каталогом с исходными изображениями и результатами обработки.
type Store struct {
	dir     string
	maxSize int64
}

// New создаёт каталог dir при необходимости.
func New(dir string, maxSize int64) (*Store, error) {
	const op = "files.New"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{dir: dir, maxSize: maxSize}, nil
}

// Dir возвращает корневой каталог хранилища.
func (s *Store) Dir() string {
	return s.dir
}

// Save записывает содержимое r в новый файл upload_<uuid><ext> и возвращает его путь.
// При превышении лимита частично записанный файл удаляется.
func (s *Store) Save(r io.Reader, ext string) (string, error) {
	const op = "files.Save"

	name := uploadPrefix + uuid.NewString() + strings.ToLower(ext)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	written, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	closeErr := f.Close()
	switch {
	case err != nil:
	case closeErr != nil:
		err = closeErr
	case written > s.maxSize:
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return path, nil
}

// Remove удаляет файл. Отсутствие файла ошибкой не считается.
func (s *Store) Remove(path string) error {
	const op = "files.Remove"
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
