// Package worker выполняет loan tasks.
//
// Worker получает task.submitted из очереди tasks.submitted и, на случай
// недоступности RabbitMQ или потерянных сообщений, периодически забирает
// PENDING tasks из БД. Оба пути сходятся в processTask:
//
//  1. ClaimPending — атомарный переход PENDING → RUNNING; task,
//     который уже забрал другой воркер, пропускается
//  2. pipeline.Run
//  3. SUCCEEDED с результатом или FAILED с текстом ошибки
//  4. отслеживание письма: email_status PENDING → SENT / FAILED
//
// При EMAIL_AWAIT=true письмо ожидается внутри processTask. Иначе
// отслеживается в фоне, и Stop ждёт эти горутины.
//
// Воркеры масштабируются горизонтально: ClaimPending гарантирует,
// что task выполняется один раз.
package worker
