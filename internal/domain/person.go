package domain

import "time"

// Person is an employee record. Identity and personal details live elsewhere.
type Person struct {
	ID         int64
	EmployeeID string
	Name       string
	CreatedAt  time.Time
}
