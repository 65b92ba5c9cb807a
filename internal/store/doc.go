// Package store defines the persistence contracts for users and todos.
// Every todo operation takes the owner's ID as an explicit argument so an
// implementation cannot express an unscoped query through this interface.
package store
