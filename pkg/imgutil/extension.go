package imgutil

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

var extensionKinds = map[string]Kind{
	".jpg":  KindJPEG,
	".jpeg": KindJPEG,
	".png":  KindPNG,
	".gif":  KindGIF,
	".bmp":  KindBMP,
	".tiff": KindTIFF,
	".tif":  KindTIFF,
	".webp": KindWebP,
}

// KindFromPath maps a file extension (case-insensitive) to a Kind.
func KindFromPath(path string) Kind {
	return extensionKinds[strings.ToLower(filepath.Ext(path))]
}

// IsSupported reports whether path carries one of the supported image
// extensions.
func IsSupported(path string) bool {
	return KindFromPath(path) != KindUnknown
}

// Extension returns the canonical file extension for k, including the dot.
func (k Kind) Extension() string {
	switch k {
	case KindJPEG:
		return ".jpg"
	case KindUnknown:
		return ""
	default:
		return "." + k.String()
	}
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatSize renders a byte count with binary units, e.g. "1.50 KB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	exp := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if exp >= len(sizeUnits) {
		exp = len(sizeUnits) - 1
	}
	size := float64(bytes) / math.Pow(1024, float64(exp))
	return fmt.Sprintf("%.2f %s", size, sizeUnits[exp])
}
