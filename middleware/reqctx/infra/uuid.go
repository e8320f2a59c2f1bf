package infra

import "github.com/google/uuid"

// UUIDGenerator gera ids UUID v4.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }
