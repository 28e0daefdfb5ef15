package memexec

import "errors"

var (
	// ErrImageCreation is returned when the in-memory image cannot be
	// materialized as an executable descriptor.
	ErrImageCreation = errors.New("image creation failed")
	// ErrPipeCreation is returned when a stdio pipe cannot be created.
	ErrPipeCreation = errors.New("pipe creation failed")
	// ErrInvalidArgument is returned when the configuration cannot be
	// represented at the OS boundary.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrSpawn is returned when the OS cannot start the program.
	ErrSpawn = errors.New("spawn failed")
	// ErrWait is returned when the child's status cannot be retrieved.
	ErrWait = errors.New("wait failed")
	// ErrAlreadyWaited is returned when a child is waited on after a
	// completed wait.
	ErrAlreadyWaited = errors.New("already waited")
)
