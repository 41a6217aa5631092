package domain

import "github.com/google/uuid"

type ClientStatus string

const (
	ClientStatusActive    ClientStatus = "active"
	ClientStatusSuspended ClientStatus = "suspended"
)

// Client is owned by the profile subsystem; the core only reads it.
type Client struct {
	ID              uuid.UUID
	Name            string
	Email           string
	Status          ClientStatus
	IsDelinquent    bool
	MonthlyCapacity Money
}
