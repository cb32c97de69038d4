package history

import (
	"bufio"
	"errors"
	"io/fs"
	"sync"

	"github.com/spf13/afero"
	"go.trai.ch/zerr"
)

// History is the persistent list of dispatched command lines, capped at
// maxItems. A maxItems of zero disables recording.
type History struct {
	fs       afero.Fs
	items    []string
	file     string
	maxItems int
	mu       sync.Mutex
}

func New(fsys afero.Fs, file string, maxItems int) (*History, error) {
	h := &History{
		fs:       fsys,
		file:     file,
		maxItems: maxItems,
	}
	if err := h.load(); err != nil {
		return nil, err
	}
	return h, nil
}

// Add records item and rewrites the history file.
func (h *History) Add(item string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.maxItems == 0 {
		return nil
	}
	h.items = append(h.items, item)
	h.trim()
	return h.save()
}

func (h *History) GetAll() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]string{}, h.items...)
}

func (h *History) trim() {
	if len(h.items) > h.maxItems {
		h.items = h.items[len(h.items)-h.maxItems:]
	}
}

func (h *History) load() error {
	file, err := h.fs.Open(h.file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open history"), "path", h.file)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		h.items = append(h.items, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read history"), "path", h.file)
	}
	h.trim()
	return nil
}

func (h *History) save() error {
	file, err := h.fs.Create(h.file)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write history"), "path", h.file)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, item := range h.items {
		if _, err := writer.WriteString(item + "\n"); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to write history"), "path", h.file)
		}
	}
	return writer.Flush()
}
