package booking

import (
	"github.com/m04kA/stancastle-booking/pkg/txmanager"
)

// Переиспользуем интерфейс из txmanager: *sql.DB или *sql.Tx из контекста
type DBExecutor = txmanager.DBExecutor
