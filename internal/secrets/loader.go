package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source names a credential and the places it may come from: an inline
// config value or a file on disk.
type Source struct {
	// Name labels the credential in error messages, e.g. "gemini api key".
	Name string
	// Value is the credential supplied inline via config or flags.
	Value string
	// File is a path to read the credential from. A non-empty File wins
	// over Value.
	File string
}

// Load resolves the credential, preferring File over Value, and trims the
// result. It fails when the resolved value is empty so a misconfigured key
// surfaces at startup rather than on the first API call.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		src.Value = string(data)
		src.File = file
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		if src.File != "" {
			return "", fmt.Errorf("%s file %q is empty", name, src.File)
		}
		return "", fmt.Errorf("%s is not configured", name)
	}

	return secret, nil
}
