// Package lang normalizes locale tags and names the languages /trans targets.
package lang

import "strings"

// Unknown is returned by Normalize for blank or unusable tags.
const Unknown = "unknown"

// Normalize reduces a locale tag to its lowercase language subtag:
// "en_US.UTF-8" -> "en", "sr@latin" -> "sr", "" -> "unknown".
func Normalize(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return Unknown
	}

	base, _, _ := strings.Cut(tag, ".")
	base, _, _ = strings.Cut(base, "@")
	base = strings.ReplaceAll(base, "_", "-")

	language, _, _ := strings.Cut(base, "-")
	language = strings.ToLower(language)
	if language == "" {
		return Unknown
	}
	return language
}

var displayNames = map[string]string{
	"en":  "English",
	"zh":  "Chinese",
	"hi":  "Hindi",
	"es":  "Spanish",
	"fr":  "French",
	"ar":  "Arabic",
	"bn":  "Bengali",
	"pt":  "Portuguese",
	"ru":  "Russian",
	"ur":  "Urdu",
	"id":  "Indonesian",
	"de":  "German",
	"ja":  "Japanese",
	"sw":  "Swahili",
	"mr":  "Marathi",
	"te":  "Telugu",
	"tr":  "Turkish",
	"ta":  "Tamil",
	"vi":  "Vietnamese",
	"it":  "Italian",
	"eo":  "Esperanto",
	"io":  "Ido",
	"ia":  "Interlingua",
	"ie":  "Interlingue",
	"vo":  "Volapuk",
	"jbo": "Lojban",
	"tlh": "Klingon",
	"tok": "Toki Pona",
	"lfn": "Lingua Franca Nova",
	"nov": "Novial",
}

// DisplayName returns the English name for a normalized tag, or the tag
// itself when it is not in the table.
func DisplayName(tag string) string {
	if name, ok := displayNames[strings.ToLower(tag)]; ok {
		return name
	}
	return tag
}
