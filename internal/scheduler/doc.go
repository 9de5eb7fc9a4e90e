// Package scheduler — периодическая уборка зависших tasks.
//
// Reaper по cron-расписанию (REAPER_CRON) находит tasks, которые
// находятся в RUNNING дольше REAPER_STALE_AFTER, и переводит их в FAILED:
// воркер, который их забрал, упал или был убит до записи результата.
//
// Перевод условный (только из RUNNING), поэтому несколько reaper'ов
// в разных процессах безопасны и leader election не нужен.
//
//	r := scheduler.NewReaper(scheduler.Config{
//	    Tasks:      taskRepo,
//	    StaleAfter: 15 * time.Minute,
//	    Logger:     logger,
//	})
//	if err := r.Start(ctx, "*/5 * * * *"); err != nil { ... }
//	defer r.Stop()
package scheduler
