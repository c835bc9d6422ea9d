package expire_pending

import "github.com/google/uuid"

// Response итог одного прохода
type Response struct {
	Expired []uuid.UUID
}
