package store

import (
	"fmt"

	"github.com/google/uuid"
)

func JobKey(id uuid.UUID) string {
	return fmt.Sprintf("eda:job:%s", id)
}

func ResultKey(id uuid.UUID) string {
	return fmt.Sprintf("eda:result:%s", id)
}
