package media

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// allowedImageTypes maps accepted sniffed types to the object key extension.
var allowedImageTypes = []struct {
	mime string
	ext  string
	name string
}{
	{mime: "image/jpeg", ext: ".jpg", name: "JPEG"},
	{mime: "image/png", ext: ".png", name: "PNG"},
	{mime: "image/webp", ext: ".webp", name: "WebP"},
	{mime: "image/gif", ext: ".gif", name: "GIF"},
}

var allowedDescription = buildAllowedDescription()

func buildAllowedDescription() string {
	names := make([]string, 0, len(allowedImageTypes))
	for _, t := range allowedImageTypes {
		names = append(names, t.name)
	}
	return humanReadableList(names)
}

func humanReadableList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return fmt.Sprintf("%s or %s", items[0], items[1])
	default:
		return fmt.Sprintf("%s, or %s", strings.Join(items[:len(items)-1], ", "), items[len(items)-1])
	}
}

// sniffImage inspects the leading bytes and returns the content type and extension
// for accepted images. The client-declared type is never trusted.
func sniffImage(data []byte) (contentType, ext string, ok bool) {
	detected := mimetype.Detect(data)
	for _, t := range allowedImageTypes {
		if detected.Is(t.mime) {
			return t.mime, t.ext, true
		}
	}
	return detected.String(), "", false
}
