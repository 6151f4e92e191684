// Package tokenfile reads the legacy token cache file, a JSON document of the
// form {"refresh_token": "..."} written by earlier deployments.
package tokenfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// File is the on-disk shape of the token cache.
type File struct {
	RefreshToken string `json:"refresh_token"`
}

// ReadRefreshToken returns the refresh token stored at path. A missing file
// yields ("", nil); a malformed file is an error.
func ReadRefreshToken(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file %q: %w", path, err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("decode token file %q: %w", path, err)
	}

	return strings.TrimSpace(f.RefreshToken), nil
}
