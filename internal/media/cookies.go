package media

import (
	"fmt"
	"os"
)

// WithCookieFile writes creds to a private temporary cookie file inside dir,
// invokes fn with its path, and removes the file afterwards regardless of how
// fn returns. fn receives an empty path when no cookies were supplied.
func WithCookieFile(dir string, creds Credentials, fn func(path string) error) error {
	if creds.Empty() {
		return fn("")
	}
	file, err := os.CreateTemp(dir, "cookies_*.txt")
	if err != nil {
		return fmt.Errorf("create cookie file: %w", err)
	}
	path := file.Name()
	defer func() { _ = os.Remove(path) }()

	if err := file.Chmod(0o600); err != nil {
		_ = file.Close()
		return fmt.Errorf("restrict cookie file: %w", err)
	}
	if _, err := file.WriteString(creds.Cookies); err != nil {
		_ = file.Close()
		return fmt.Errorf("write cookie file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close cookie file: %w", err)
	}
	return fn(path)
}
