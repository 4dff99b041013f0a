package types

import (
	"os"
	"strconv"
	"strings"
)

const defaultMaxFileSize = 5 * 1024 * 1024 // 5 MiB

var defaultFileTypes = []string{"jpg", "jpeg", "png", "pdf"}

func UploadsDir() string {
	if dir := os.Getenv("UPLOADS_DIR"); dir != "" {
		return dir
	}
	return "uploads"
}

func MaxFileSize() int64 {
	raw := os.Getenv("MAX_FILE_SIZE")
	if raw == "" {
		return defaultMaxFileSize
	}

	size, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || size <= 0 {
		return defaultMaxFileSize
	}

	return size
}

// AllowedFileTypes returns the lowercased extension allow-list for uploads.
func AllowedFileTypes() []string {
	raw := os.Getenv("ALLOWED_FILE_TYPES")
	if raw == "" {
		return defaultFileTypes
	}

	var allowed []string
	for _, ext := range strings.Split(raw, ",") {
		trimmed := strings.ToLower(strings.TrimSpace(ext))
		if trimmed != "" {
			allowed = append(allowed, trimmed)
		}
	}

	if len(allowed) == 0 {
		return defaultFileTypes
	}

	return allowed
}
