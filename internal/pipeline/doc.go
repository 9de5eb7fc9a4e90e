// Package pipeline выполняет задачу digital worker'а над заявкой на кредит.
//
// Порядок:
//
//	extract → translate → compliance → log → format → email (async)
//
// Каждая стадия ждёт предыдущую. Ошибка любой стадии до format
// прерывает запуск и возвращается с именем стадии. Письмо отправляется
// в отдельной горутине: Run возвращает Dispatch, по которому вызывающий
// может дождаться отправки или явно отказаться от результата (Detach).
// Ошибка отправки письма не влияет на Result.
package pipeline
