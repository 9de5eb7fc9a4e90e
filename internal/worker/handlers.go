package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/loanworker/internal/domain"
	"github.com/shaiso/loanworker/internal/mq"
	"github.com/shaiso/loanworker/internal/pipeline"
	"github.com/shaiso/loanworker/internal/repo"
	"github.com/shaiso/loanworker/internal/telemetry"
)

// handleTaskSubmitted обрабатывает task.submitted из очереди.
func (w *Worker) handleTaskSubmitted(ctx context.Context, msg *mq.Message) error {
	if msg.Type != mq.MessageTypeTaskSubmitted {
		return fmt.Errorf("%w: unexpected message type %s", mq.ErrReject, msg.Type)
	}

	payload, err := mq.Decode[mq.TaskSubmittedPayload](msg)
	if err != nil {
		return fmt.Errorf("%w: %v", mq.ErrReject, err)
	}

	w.logger.Debug("received task.submitted", "task_id", payload.TaskID)

	if err := w.processTask(ctx, payload.TaskID); err != nil {
		// task уже обработан или удалён — ack
		if skippable(err) {
			w.logger.Debug("task not processed", "task_id", payload.TaskID, "reason", err)
			return nil
		}
		return err
	}
	return nil
}

// processTask забирает task, выполняет pipeline и сохраняет результат.
//
// Ошибка pipeline — не ошибка processTask: она сохраняется в task как FAILED.
// processTask возвращает ошибку только если не удалось прочитать
// или записать task.
func (w *Worker) processTask(ctx context.Context, taskID uuid.UUID) error {
	task, err := w.tasks.ClaimPending(ctx, taskID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	case errors.Is(err, repo.ErrInvalidState):
		return fmt.Errorf("%w: %s", ErrTaskNotPending, taskID)
	case err != nil:
		return fmt.Errorf("claim task: %w", err)
	}

	logger := telemetry.WithTaskID(w.logger, task.ID.String())
	logger.Info("task started", "url", task.Input.URL)

	result, dispatch, runErr := w.runner.Run(telemetry.WithLogger(ctx, logger), task.Input)

	// итог сохраняется и при остановке воркера
	ctx = context.WithoutCancel(ctx)
	if runErr != nil {
		return w.fail(ctx, logger, task, runErr)
	}

	raw, err := json.Marshal(result)
	if err != nil {
		dispatch.Detach()
		return w.fail(ctx, logger, task, fmt.Errorf("encode result: %w", err))
	}

	task.MarkSucceeded(raw, result.Recommendation)
	task.MarkEmail(domain.EmailStatusPending, "")
	if err := w.tasks.Update(ctx, task); err != nil {
		dispatch.Detach()
		return fmt.Errorf("update task to succeeded: %w", err)
	}
	telemetry.TasksTotal.WithLabelValues(string(domain.TaskStatusSucceeded)).Inc()

	logger.Info("task succeeded", "duration", task.Duration())

	if w.emailAwait {
		w.trackEmail(ctx, logger, task.ID, dispatch)
		return nil
	}

	w.emails.Add(1)
	go func() {
		defer w.emails.Done()
		w.trackEmail(ctx, logger, task.ID, dispatch)
	}()
	return nil
}

// fail сохраняет task как FAILED.
func (w *Worker) fail(ctx context.Context, logger *slog.Logger, task *domain.TaskRun, cause error) error {
	task.MarkFailed(cause.Error())
	if err := w.tasks.Update(ctx, task); err != nil {
		return fmt.Errorf("update task to failed: %w", err)
	}
	telemetry.TasksTotal.WithLabelValues(string(domain.TaskStatusFailed)).Inc()

	logger.Warn("task failed", "error", cause)
	return nil
}

// trackEmail ждёт отправку письма и сохраняет её исход.
// Остановка воркера не прерывает ожидание: его ограничивает emailTimeout.
func (w *Worker) trackEmail(ctx context.Context, logger *slog.Logger, taskID uuid.UUID, dispatch *pipeline.Dispatch) {
	ctx = context.WithoutCancel(ctx)
	waitCtx, cancel := context.WithTimeout(ctx, w.emailTimeout)
	defer cancel()

	status, emailErr := domain.EmailStatusSent, ""
	if err := dispatch.Wait(waitCtx); err != nil {
		if waitCtx.Err() != nil {
			dispatch.Detach()
			err = fmt.Errorf("email dispatch did not finish in %s", w.emailTimeout)
		}
		status, emailErr = domain.EmailStatusFailed, err.Error()
		logger.Warn("email failed", "error", err)
	} else {
		logger.Info("email sent")
	}

	if err := w.tasks.UpdateEmail(ctx, taskID, status, emailErr); err != nil {
		logger.Error("failed to update email status", "error", err)
	}
}
