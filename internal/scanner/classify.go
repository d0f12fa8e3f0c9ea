package scanner

import (
	"path/filepath"
	"strings"
)

var categoryByExtension = buildCategoryTable(map[Category][]string{
	CategoryDocument: {"pdf", "doc", "docx", "txt", "xls", "xlsx", "ppt", "pptx", "odt", "ods", "odp", "rtf", "csv", "md", "json", "xml", "html", "htm"},
	CategoryImage:    {"jpg", "jpeg", "png", "gif", "bmp", "svg", "webp", "ico", "tiff", "tif", "raw", "heic", "heif"},
	CategoryVideo:    {"mp4", "avi", "mkv", "mov", "wmv", "flv", "webm", "m4v", "mpeg", "mpg", "3gp", "ts"},
	CategoryAudio:    {"mp3", "wav", "flac", "aac", "ogg", "m4a", "wma", "aiff", "alac", "opus"},
})

func buildCategoryTable(groups map[Category][]string) map[string]Category {
	table := make(map[string]Category)
	for cat, exts := range groups {
		for _, ext := range exts {
			table[ext] = cat
		}
	}
	return table
}

// Classify maps a file extension (without the dot) to a category.
// Matching is case-insensitive; anything unlisted, including "", is CategoryOther.
func Classify(extension string) Category {
	if cat, ok := categoryByExtension[strings.ToLower(extension)]; ok {
		return cat
	}
	return CategoryOther
}

// Extension returns the lowercase extension of a file name without the dot.
// "a.tar.gz" yields "gz" and ".hidden" yields "hidden".
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
