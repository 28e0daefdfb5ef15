package model

import "fmt"

// Artifact is an executable image held fully in memory, ready to be run
// without ever touching disk.
type Artifact struct {
	// Name is the display name of the executable (file base name, URL base
	// name, path inside an OCI image...).
	Name string
	// Data is the raw executable image.
	Data []byte
	// Origin describes where the bytes came from.
	Origin string
	// Digest is the hex SHA-256 of Data.
	Digest string
	// SizeBytes is len(Data), kept separately so records survive dropping
	// the data itself.
	SizeBytes int64
}

// Validate validates the artifact.
func (a *Artifact) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("name is required: %w", ErrNotValid)
	}

	if len(a.Data) == 0 {
		return fmt.Errorf("artifact has no data: %w", ErrNotValid)
	}

	return nil
}
