package redispatch_paid

import (
	"time"

	"github.com/google/uuid"
)

// Options окно повторной отправки
type Options struct {
	// Grace сколько ждать после оплаты, прежде чем считать отправку потерянной.
	// Должно быть больше таймаута обычного прогона dispatcher
	Grace time.Duration
	// MaxAge старше этого бронирования не трогаем, ими занимается оператор
	MaxAge time.Duration
	// BatchSize максимум бронирований за проход
	BatchSize uint64
}

const defaultBatchSize uint64 = 50

// Response итог одного прохода
type Response struct {
	Notified []uuid.UUID
	Pending  []uuid.UUID
}
