package core

import (
	uuid "github.com/satori/go.uuid"
)

func newTestUUID() uuid.UUID {
	return uuid.NewV4()
}
