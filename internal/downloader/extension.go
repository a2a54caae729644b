package downloader

import "path"

// MaxRetries bounds the retries after the first attempt.
const MaxRetries = 3

// fallbackExtensions is the cascade cycle. Retry r tries
// fallbackExtensions[r % len], so retries 1, 2, 3 try .png, .jpeg, .jpg.
var fallbackExtensions = [...]string{".jpg", ".png", ".jpeg"}

// ExtensionForRetry returns the extension to try on retry r (1-based).
func ExtensionForRetry(r int) string {
	if r <= 0 {
		return fallbackExtensions[0]
	}
	return fallbackExtensions[r%len(fallbackExtensions)]
}

// initialExtension is the extension of the URL as extracted, defaulting to .jpg.
func initialExtension(p string) string {
	if ext := path.Ext(p); ext != "" {
		return ext
	}
	return fallbackExtensions[0]
}
