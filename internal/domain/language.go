package domain

import (
	"path/filepath"
	"strings"

	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

// Language names a target source language and its code-fence tag.
type Language struct {
	Name  string
	Fence string
}

var languagesByExt = map[string]Language{
	".dart":  {Name: "Dart (Flutter)", Fence: "dart"},
	".kt":    {Name: "Kotlin (Jetpack Compose)", Fence: "kotlin"},
	".java":  {Name: "Java (Android)", Fence: "java"},
	".swift": {Name: "Swift (SwiftUI/UIKit)", Fence: "swift"},
	".xml":   {Name: "Android XML layout", Fence: "xml"},
	".tsx":   {Name: "TypeScript (React Native)", Fence: "tsx"},
	".jsx":   {Name: "JavaScript (React Native)", Fence: "jsx"},
	".js":    {Name: "JavaScript (React Native)", Fence: "js"},
}

// DetectLanguage picks the language from an explicit override, else from the
// file extension, else a generic fallback.
func DetectLanguage(file m.Path, override string) Language {
	if name := strings.TrimSpace(override); name != "" {
		return Language{Name: name, Fence: strings.ToLower(strings.Fields(name)[0])}
	}

	if lang, ok := languagesByExt[strings.ToLower(filepath.Ext(string(file)))]; ok {
		return lang
	}

	return Language{Name: "source code", Fence: ""}
}
