package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// supported is the set of languages the whisper wrapper accepts. The reverse
// display-name index below is built from this list.
var supported = []language.Tag{
	language.English,
	language.Spanish,
	language.French,
	language.German,
	language.Italian,
	language.Portuguese,
	language.Japanese,
	language.Korean,
	language.Chinese,
	language.Russian,
	language.Arabic,
	language.Hindi,
	language.Dutch,
	language.Polish,
	language.Swedish,
	language.Danish,
	language.Norwegian,
	language.Finnish,
	language.Ukrainian,
	language.Turkish,
	language.Vietnamese,
	language.Thai,
}

var byName = func() map[string]language.Tag {
	namer := display.English.Languages()
	index := make(map[string]language.Tag, len(supported))
	for _, tag := range supported {
		index[strings.ToLower(namer.Name(tag))] = tag
	}
	return index
}()

func resolve(value string) (language.Tag, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return language.Und, false
	}
	if tag, ok := byName[strings.ToLower(value)]; ok {
		return tag, true
	}
	tag, err := language.Parse(value)
	if err != nil || tag == language.Und {
		return language.Und, false
	}
	return tag, true
}

// ToISO2 converts a language name or code to its ISO 639-1 form.
// Returns empty string for unrecognized input.
func ToISO2(value string) string {
	tag, ok := resolve(value)
	if !ok {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	code := base.String()
	if len(code) != 2 {
		return ""
	}
	return code
}

// DisplayName returns a human-readable English name for a language name or
// code, or "Unknown" when the input cannot be resolved.
func DisplayName(value string) string {
	tag, ok := resolve(value)
	if !ok {
		return "Unknown"
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return "Unknown"
}

// Known reports whether the value resolves to a usable language.
func Known(value string) bool {
	return ToISO2(value) != ""
}
