// Package skill вызывает внешние skills digital worker'а.
//
// # Обзор
//
// Skill — именованная удалённая возможность: её вызывают с объектом
// параметров и асинхронно получают результат. Пакет не реализует сами
// skills (extraction, rules engine, email) — только транспорт до них.
//
//	type Skill interface {
//	    Execute(ctx context.Context, params any) (json.RawMessage, error)
//	}
//
// Реализации:
//   - HTTPSkill — POST JSON на endpoint skill'а
//   - QueueSkill — публикация параметров в RabbitMQ (fire-and-forget)
//
// # Registry и Capabilities
//
// Registry хранит skills по имени. Resolve достаёт из него три skill'а,
// нужные pipeline, и оборачивает их в типизированные интерфейсы:
//
//	caps, err := skill.Resolve(registry)
//	// caps.Extractor  — "Extract data from loan application form"
//	// caps.Compliance — "Check compliance"
//	// caps.Mailer     — "Email recommendation"
//
// Отсутствующий skill — ошибка на этапе Resolve, а не при первом вызове.
package skill
