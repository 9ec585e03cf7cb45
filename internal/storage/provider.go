// Package storage defines the collection file-system abstraction.
package storage

import "github.com/starford/jobtrail/internal/models"

// File is a collection file as read from disk.
type File struct {
	Collection models.Collection
	Path       string // relative to the data root
	Data       []byte
}

// Provider is the interface for collection file operations.
type Provider interface {
	// List returns metadata for every collection that has a file.
	List() ([]models.CollectionMetadata, error)
	// Read returns the file backing collection c.
	Read(c models.Collection) (*File, error)
	// Write atomically replaces the content of collection c, creating
	// <c>.json when the collection has no file yet.
	Write(c models.Collection, content []byte) error
	// Delete removes the file backing collection c.
	Delete(c models.Collection) error
}
