package utils

import (
	"net/url"
	"os"
	"strings"
)

// BuildObjectAccessURL turns a stored object path into a public URL.
// STORAGE_ACCESS_BASE_URL wins (may contain {objectKey}); otherwise GCS_URL + GCS_BUCKET; otherwise the key itself.
func BuildObjectAccessURL(objectKey string) string {
	objectKey = strings.TrimPrefix(strings.TrimSpace(objectKey), "/")
	if strings.Contains(objectKey, "://") {
		return objectKey
	}

	base := strings.TrimSpace(os.Getenv("STORAGE_ACCESS_BASE_URL"))
	if base != "" {
		if strings.Contains(base, "{objectKey}") {
			escaped := objectKey
			if strings.Contains(base, "?") {
				escaped = url.QueryEscape(objectKey)
			}
			return strings.ReplaceAll(base, "{objectKey}", escaped)
		}
		if strings.Contains(base, "?") {
			return base + url.QueryEscape(objectKey)
		}
		return strings.TrimRight(base, "/") + "/" + objectKey
	}

	gcsURL := strings.TrimSpace(os.Getenv("GCS_URL"))
	gcsBucket := strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	if gcsURL != "" && gcsBucket != "" {
		return "https://" + gcsURL + "/" + gcsBucket + "/" + objectKey
	}

	return objectKey
}

// ObjectKeyFromPath accepts a raw key, a gs:// URI or a storage.googleapis.com URL and returns the object key.
func ObjectKeyFromPath(rawPath string) string {
	rawPath = strings.TrimSpace(rawPath)
	if rawPath == "" || strings.Contains(rawPath, "..") {
		return ""
	}
	if strings.HasPrefix(rawPath, "gs://") {
		parts := strings.SplitN(strings.TrimPrefix(rawPath, "gs://"), "/", 2)
		if len(parts) == 2 {
			return parts[1]
		}
		return ""
	}
	if !strings.Contains(rawPath, "://") {
		return strings.TrimPrefix(rawPath, "/")
	}

	parsed, err := url.Parse(rawPath)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Host)
	p := strings.TrimPrefix(parsed.Path, "/")
	switch {
	case host == "storage.googleapis.com" || host == "storage.cloud.google.com":
		parts := strings.SplitN(p, "/", 2)
		if len(parts) == 2 {
			return parts[1]
		}
	case strings.HasSuffix(host, ".storage.googleapis.com"):
		return p
	}
	return ""
}
