package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shaiso/loanworker/internal/telemetry"
)

// Dispatch — запущенная отправка письма.
type Dispatch struct {
	logger *slog.Logger
	done   chan struct{}

	mu       sync.Mutex
	err      error
	finished bool
	detached bool
}

// StartDispatch запускает send в отдельной горутине.
// logger получает ошибку отправки после Detach.
func StartDispatch(logger *slog.Logger, send func() error) *Dispatch {
	d := &Dispatch{
		logger: logger,
		done:   make(chan struct{}),
	}
	go d.run(send)
	return d
}

func (d *Dispatch) run(send func() error) {
	err := send()

	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	telemetry.EmailsTotal.WithLabelValues(outcome).Inc()

	d.mu.Lock()
	d.err = err
	d.finished = true
	detached := d.detached
	d.mu.Unlock()
	close(d.done)

	if detached {
		d.report(err)
	}
}

// Done закрывается, когда отправка завершена.
func (d *Dispatch) Done() <-chan struct{} {
	return d.done
}

// Wait ждёт завершения отправки или отмены ctx.
func (d *Dispatch) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		return d.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err — результат отправки; nil, пока отправка не завершена.
func (d *Dispatch) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Detach отказывается от наблюдения за результатом.
// Ошибка отправки после этого только логируется.
func (d *Dispatch) Detach() {
	d.mu.Lock()
	d.detached = true
	finished, err := d.finished, d.err
	d.mu.Unlock()

	if finished {
		d.report(err)
	}
}

func (d *Dispatch) report(err error) {
	if err != nil {
		d.logger.Error("email dispatch failed", "error", err)
		return
	}
	d.logger.Debug("email dispatched")
}
