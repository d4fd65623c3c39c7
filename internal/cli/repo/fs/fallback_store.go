package fs

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"QAChecklist/internal/cli/model"
	"QAChecklist/internal/cli/repo"
)

const filePrefix = "qa_form_"

// FallbackStore: резервное хранилище на файлах: по одному JSON-файлу на форму,
// только последний снимок, без очереди отправки и фото.
// Используется, когда основное хранилище не удалось открыть.
type FallbackStore struct {
	Dir string
}

type record struct {
	FormID    string           `json:"formId"`
	Data      json.RawMessage  `json:"data"`
	Timestamp int64            `json:"timestamp"`
	Status    model.FormStatus `json:"status"`
}

func (s FallbackStore) dir() (string, error) {
	if s.Dir == "" {
		return "", errors.New("fallback dir is not set")
	}
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return "", err
	}
	return s.Dir, nil
}

// path строит имя файла формы. formID кодируется обратимо (base64url), так что
// разные идентификаторы не попадают в один файл.
func (s FallbackStore) path(formID string) (string, error) {
	if formID == "" {
		return "", errors.New("empty form id")
	}
	dir, err := s.dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName(formID)), nil
}

func fileName(formID string) string {
	return filePrefix + base64.RawURLEncoding.EncodeToString([]byte(formID)) + ".json"
}

// Save записывает снимок формы, заменяя предыдущий.
func (s FallbackStore) Save(formID string, data []byte, status model.FormStatus, ts int64) error {
	p, err := s.path(formID)
	if err != nil {
		return fmt.Errorf("fallback save: %w: %w", repo.ErrWriteFailed, err)
	}
	b, err := json.Marshal(record{FormID: formID, Data: data, Timestamp: ts, Status: status})
	if err != nil {
		return fmt.Errorf("fallback save: %w: %w", repo.ErrWriteFailed, err)
	}
	// пишем во временный файл и переименовываем, чтобы не оставить половину записи
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("fallback save: %w: %w", repo.ErrWriteFailed, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("fallback save: %w: %w", repo.ErrWriteFailed, err)
	}
	return nil
}

func readRecord(p string) (*model.SavedForm, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return &model.SavedForm{
		ID:           r.FormID,
		FormID:       r.FormID,
		Data:         []byte(r.Data),
		Timestamp:    r.Timestamp,
		Status:       r.Status,
		LastModified: r.Timestamp,
	}, nil
}

// Load возвращает (nil, nil), если снимка нет.
func (s FallbackStore) Load(formID string) (*model.SavedForm, error) {
	p, err := s.path(formID)
	if err != nil {
		return nil, fmt.Errorf("fallback load: %w: %w", repo.ErrReadFailed, err)
	}
	f, err := readRecord(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fallback load: %w: %w", repo.ErrReadFailed, err)
	}
	if f.FormID != formID {
		return nil, nil
	}
	return f, nil
}

// List возвращает все снимки, последние первыми. Повреждённые файлы пропускаются.
func (s FallbackStore) List() ([]model.SavedForm, error) {
	dir, err := s.dir()
	if err != nil {
		return nil, fmt.Errorf("fallback list: %w: %w", repo.ErrReadFailed, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("fallback list: %w: %w", repo.ErrReadFailed, err)
	}
	res := make([]model.SavedForm, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		f, err := readRecord(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		res = append(res, *f)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].LastModified > res[j].LastModified })
	return res, nil
}

// Delete не считает ошибкой отсутствие файла.
func (s FallbackStore) Delete(formID string) error {
	p, err := s.path(formID)
	if err != nil {
		return fmt.Errorf("fallback delete: %w: %w", repo.ErrWriteFailed, err)
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("fallback delete: %w: %w", repo.ErrWriteFailed, err)
	}
	return nil
}

// Clear удаляет все снимки форм из каталога.
func (s FallbackStore) Clear() error {
	dir, err := s.dir()
	if err != nil {
		return fmt.Errorf("fallback clear: %w: %w", repo.ErrWriteFailed, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("fallback clear: %w: %w", repo.ErrWriteFailed, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("fallback clear: %w: %w", repo.ErrWriteFailed, err)
		}
	}
	return nil
}
