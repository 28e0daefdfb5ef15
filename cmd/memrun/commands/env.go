package commands

import (
	utilsenv "github.com/slok/memrun/internal/utils/env"
)

// parseEnvSpecs converts --env flag values into environment overrides.
// Each entry is KEY=VALUE, or a bare KEY that copies the value from the
// current environment. Later entries override earlier ones.
func parseEnvSpecs(specs []string) (map[string]string, error) {
	return utilsenv.ParseSpecs(specs)
}
