package helper

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

type HelperRepository struct {
	baseUrl string
	WG      *sync.WaitGroup
	logger  *slog.Logger
}

func New(baseUrl string, wg *sync.WaitGroup, logger *slog.Logger) *HelperRepository {
	if wg == nil {
		wg = &sync.WaitGroup{}
	}

	return &HelperRepository{
		baseUrl: baseUrl,
		WG:      wg,
		logger:  logger,
	}
}

func (h *HelperRepository) NewEmailData() map[string]any {
	data := map[string]any{
		"BaseURL": h.baseUrl,
	}

	return data
}

// BackgroundTask runs fn on its own goroutine. Errors and panics are logged;
// Wait blocks until every task started so far has finished.
func (h *HelperRepository) BackgroundTask(fn func() error) {
	h.WG.Add(1)

	go func() {
		defer h.WG.Done()

		defer func() {
			if err := recover(); err != nil {
				h.logger.Error(fmt.Sprintf("%s", err), "trace", string(debug.Stack()))
			}
		}()

		if err := fn(); err != nil {
			h.logger.Error("background task failed", "error", err.Error())
		}
	}()
}

func (h *HelperRepository) Wait() {
	h.WG.Wait()
}
