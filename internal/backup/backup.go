package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// Run copies the database file into backupDir under a timestamped name and
// returns the path of the copy. A missing database file is not an error; it
// just means nothing has been written yet.
func Run(databasePath string, backupDir string) (string, error) {
	src, err := os.Open(databasePath)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "open database file")
	}
	defer src.Close()

	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", errors.Wrap(err, "create backup folder")
	}

	stamp := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("%s_%s%s", baseName(databasePath), stamp, filepath.Ext(databasePath))
	target := filepath.Join(backupDir, name)

	dst, err := os.Create(target)
	if err != nil {
		return "", errors.Wrap(err, "create backup file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(target)
		return "", errors.Wrap(err, "copy database file")
	}
	return target, nil
}

func baseName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
