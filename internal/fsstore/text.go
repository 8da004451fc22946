package fsstore

import (
	"errors"
	"fmt"
	"os"
)

// ReadText returns the file content and whether the file existed. A
// missing file is not an error so callers can treat absent notes as
// empty.
func ReadText(path string) (string, bool, error) {
	p, err := normalizePath(path)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read text %s: %w", p, err)
	}
	return string(data), true, nil
}

func WriteTextAtomic(path, content string, opts FileOptions) error {
	p, err := normalizePath(path)
	if err != nil {
		return err
	}
	return writeAtomic(p, []byte(content), opts)
}
