package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Canonical codes for the Chinese script variants.
const (
	SimplifiedChinese  = "zh-Hans"
	TraditionalChinese = "zh-Hant"
)

type entry struct {
	code    string   // normalized BCP-47 code
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // English name used in prompts and tables
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"zh-Hans", "zho", "chi", "Simplified Chinese", []string{"chinese", "simplified chinese"}},
	{"zh-Hant", "", "", "Traditional Chinese", []string{"traditional chinese"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"es", "spa", "", "Spanish", []string{"spanish"}},
	{"fr", "fra", "fre", "French", []string{"french"}},
	{"de", "deu", "ger", "German", []string{"german"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
	{"pl", "pol", "", "Polish", []string{"polish"}},
	{"sv", "swe", "", "Swedish", []string{"swedish"}},
	{"da", "dan", "", "Danish", []string{"danish"}},
	{"no", "nor", "", "Norwegian", []string{"norwegian"}},
	{"fi", "fin", "", "Finnish", []string{"finnish"}},
	{"tr", "tur", "", "Turkish", []string{"turkish"}},
	{"uk", "ukr", "", "Ukrainian", []string{"ukrainian"}},
	{"vi", "vie", "", "Vietnamese", []string{"vietnamese"}},
	{"th", "tha", "", "Thai", []string{"thai"}},
	{"id", "ind", "", "Indonesian", []string{"indonesian"}},
	{"ms", "msa", "may", "Malay", []string{"malay"}},
	{"he", "heb", "", "Hebrew", []string{"hebrew"}},
	{"el", "ell", "gre", "Greek", []string{"greek"}},
	{"cs", "ces", "cze", "Czech", []string{"czech"}},
	{"hu", "hun", "", "Hungarian", []string{"hungarian"}},
	{"ro", "ron", "rum", "Romanian", []string{"romanian"}},
	{"bg", "bul", "", "Bulgarian", []string{"bulgarian"}},
	{"fa", "fas", "per", "Persian", []string{"persian", "farsi"}},
	{"bn", "ben", "", "Bengali", []string{"bengali"}},
	{"ta", "tam", "", "Tamil", []string{"tamil"}},
	{"fil", "fil", "", "Filipino", []string{"filipino", "tagalog"}},
}

// Index maps built at init time.
var (
	byCode  map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byCode[e.code] = e
		if e.code3 != "" {
			byCode3[e.code3] = e
		}
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

// Normalize maps a caption language code onto the form used for comparisons:
// Chinese region and script variants collapse to zh-Hans or zh-Hant, the
// legacy "iw" becomes "he", and every other code keeps only its primary subtag.
func Normalize(code string) string {
	normalized := strings.ToLower(strings.TrimSpace(code))
	switch {
	case normalized == "":
		return ""
	case normalized == "zh-cn", normalized == "zh-hans", normalized == "zh-sg", strings.HasPrefix(normalized, "zh-hans-"):
		return SimplifiedChinese
	case normalized == "zh-tw", normalized == "zh-hant", normalized == "zh-hk", normalized == "zh-mo", strings.HasPrefix(normalized, "zh-hant-"):
		return TraditionalChinese
	case normalized == "iw":
		return "he"
	}
	if idx := strings.Index(normalized, "-"); idx >= 0 {
		return normalized[:idx]
	}
	return normalized
}

// Equal reports whether two codes name the same language after normalization.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Valid reports whether code parses as a BCP-47 tag.
func Valid(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	_, err := xlanguage.Parse(code)
	return err == nil
}

// IsCJK reports whether the language is written without word separators.
func IsCJK(code string) bool {
	switch Normalize(code) {
	case SimplifiedChinese, TraditionalChinese, "ja", "ko":
		return true
	default:
		return false
	}
}

// IsChineseVariantConversion reports whether translating from source to target
// only converts between Simplified and Traditional Chinese.
func IsChineseVariantConversion(source, target string) bool {
	source = Normalize(source)
	target = Normalize(target)
	isChinese := func(code string) bool {
		return code == SimplifiedChinese || code == TraditionalChinese
	}
	return isChinese(source) && isChinese(target) && source != target
}

func lookup(code string) *entry {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil
	}
	if e, ok := byCode[Normalize(trimmed)]; ok {
		return e
	}
	lowered := strings.ToLower(trimmed)
	if e, ok := byCode3[lowered]; ok {
		return e
	}
	if e, ok := byWord[lowered]; ok {
		return e
	}
	return nil
}

// DisplayName returns the English name for a language code. Codes missing from
// the built-in table fall back to CLDR names. Returns "Unknown" for empty input,
// or the uppercased code when nothing matches.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	if e := lookup(trimmed); e != nil {
		return e.display
	}
	if tag, err := xlanguage.Parse(trimmed); err == nil {
		if name := display.Tags(xlanguage.English).Name(tag); name != "" {
			return name
		}
	}
	return strings.ToUpper(trimmed)
}

// Canonical resolves word forms and ISO 639-2 codes to the normalized code.
// Unrecognized input is normalized as-is.
func Canonical(code string) string {
	if e := lookup(code); e != nil {
		return e.code
	}
	return Normalize(code)
}

// NormalizeList deduplicates and canonicalizes a list of language codes.
func NormalizeList(languages []string) []string {
	if len(languages) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(languages))
	seen := make(map[string]struct{}, len(languages))
	for _, lang := range languages {
		canonical := Canonical(lang)
		if canonical == "" {
			continue
		}
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		normalized = append(normalized, canonical)
	}
	return normalized
}
