package services

import "github.com/google/uuid"

// validID reports whether id can be a primary key. Malformed IDs are treated
// as unknown rather than passed to the database.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
