package model

import "fmt"

// SourceSpec describes where executable bytes are obtained from.
// Exactly one of the fields must be set.
type SourceSpec struct {
	// File is a path on the local filesystem.
	File string
	// URL is an HTTP(S) URL to download the bytes from.
	URL string
	// Image extracts a file from an OCI image.
	Image *ImageSourceSpec
	// Stdin reads the bytes from the runner's standard input.
	Stdin bool
}

// ImageSourceSpec selects a file inside an OCI image.
type ImageSourceSpec struct {
	// Ref is the image reference (e.g. "busybox:latest").
	Ref string
	// Path is the absolute path of the executable inside the image.
	Path string
}

// Validate validates the source spec.
func (s *SourceSpec) Validate() error {
	count := 0
	if s.File != "" {
		count++
	}
	if s.URL != "" {
		count++
	}
	if s.Image != nil {
		count++
	}
	if s.Stdin {
		count++
	}

	if count == 0 {
		return fmt.Errorf("a source is required (file, url, image or stdin): %w", ErrNotValid)
	}
	if count > 1 {
		return fmt.Errorf("only one source can be specified at a time: %w", ErrNotValid)
	}

	if s.Image != nil {
		if s.Image.Ref == "" {
			return fmt.Errorf("image source ref is required: %w", ErrNotValid)
		}
		if s.Image.Path == "" {
			return fmt.Errorf("image source path is required: %w", ErrNotValid)
		}
	}

	return nil
}
