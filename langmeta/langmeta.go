// Package langmeta provides a shared language metadata registry
// (native names and emoji flags) plus the language codes accepted by
// the translation service.
package langmeta

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto is the pseudo source language that asks the service to detect it.
const Auto = "auto"

// Meta describes language display metadata.
type Meta struct {
	Name string
	Flag string
}

// Registry contains canonical language metadata.
// Locale variants are resolved in Resolve() via normalization and base fallback.
var Registry = map[string]Meta{
	"af":    {Name: "Afrikaans", Flag: "🇿🇦"},
	"am":    {Name: "አማርኛ", Flag: "🇪🇹"},
	"ar":    {Name: "العربية", Flag: "🇸🇦"},
	"az":    {Name: "Azərbaycanca", Flag: "🇦🇿"},
	"be":    {Name: "Беларуская", Flag: "🇧🇾"},
	"bg":    {Name: "Български", Flag: "🇧🇬"},
	"bn":    {Name: "বাংলা", Flag: "🇧🇩"},
	"bs":    {Name: "Bosanski", Flag: "🇧🇦"},
	"ca":    {Name: "Català", Flag: "🇪🇸"},
	"cs":    {Name: "Čeština", Flag: "🇨🇿"},
	"cy":    {Name: "Cymraeg", Flag: "🇬🇧"},
	"da":    {Name: "Dansk", Flag: "🇩🇰"},
	"de":    {Name: "Deutsch", Flag: "🇩🇪"},
	"de-AT": {Name: "Deutsch (Österreich)", Flag: "🇦🇹"},
	"de-CH": {Name: "Deutsch (Schweiz)", Flag: "🇨🇭"},
	"el":    {Name: "Ελληνικά", Flag: "🇬🇷"},
	"en":    {Name: "English", Flag: "🇺🇸"},
	"en-GB": {Name: "English (UK)", Flag: "🇬🇧"},
	"es":    {Name: "Español", Flag: "🇪🇸"},
	"es-MX": {Name: "Español (México)", Flag: "🇲🇽"},
	"et":    {Name: "Eesti", Flag: "🇪🇪"},
	"fa":    {Name: "فارسی", Flag: "🇮🇷"},
	"fi":    {Name: "Suomi", Flag: "🇫🇮"},
	"fr":    {Name: "Français", Flag: "🇫🇷"},
	"fr-CA": {Name: "Français (Canada)", Flag: "🇨🇦"},
	"ga":    {Name: "Gaeilge", Flag: "🇮🇪"},
	"he":    {Name: "עברית", Flag: "🇮🇱"},
	"hi":    {Name: "हिन्दी", Flag: "🇮🇳"},
	"hr":    {Name: "Hrvatski", Flag: "🇭🇷"},
	"hu":    {Name: "Magyar", Flag: "🇭🇺"},
	"hy":    {Name: "Հայերեն", Flag: "🇦🇲"},
	"id":    {Name: "Bahasa Indonesia", Flag: "🇮🇩"},
	"is":    {Name: "Íslenska", Flag: "🇮🇸"},
	"it":    {Name: "Italiano", Flag: "🇮🇹"},
	"iw":    {Name: "עברית", Flag: "🇮🇱"},
	"ja":    {Name: "日本語", Flag: "🇯🇵"},
	"ka":    {Name: "ქართული", Flag: "🇬🇪"},
	"kk":    {Name: "Қазақ тілі", Flag: "🇰🇿"},
	"ko":    {Name: "한국어", Flag: "🇰🇷"},
	"lt":    {Name: "Lietuvių", Flag: "🇱🇹"},
	"lv":    {Name: "Latviešu", Flag: "🇱🇻"},
	"mk":    {Name: "Македонски", Flag: "🇲🇰"},
	"mn":    {Name: "Монгол", Flag: "🇲🇳"},
	"ms":    {Name: "Bahasa Melayu", Flag: "🇲🇾"},
	"nl":    {Name: "Nederlands", Flag: "🇳🇱"},
	"no":    {Name: "Norsk", Flag: "🇳🇴"},
	"pl":    {Name: "Polski", Flag: "🇵🇱"},
	"pt":    {Name: "Português", Flag: "🇵🇹"},
	"pt-BR": {Name: "Português (Brasil)", Flag: "🇧🇷"},
	"ro":    {Name: "Română", Flag: "🇷🇴"},
	"ru":    {Name: "Русский", Flag: "🇷🇺"},
	"sk":    {Name: "Slovenčina", Flag: "🇸🇰"},
	"sl":    {Name: "Slovenščina", Flag: "🇸🇮"},
	"sq":    {Name: "Shqip", Flag: "🇦🇱"},
	"sr":    {Name: "Српски", Flag: "🇷🇸"},
	"sv":    {Name: "Svenska", Flag: "🇸🇪"},
	"sw":    {Name: "Kiswahili", Flag: "🇹🇿"},
	"th":    {Name: "ไทย", Flag: "🇹🇭"},
	"tr":    {Name: "Türkçe", Flag: "🇹🇷"},
	"uk":    {Name: "Українська", Flag: "🇺🇦"},
	"ur":    {Name: "اردو", Flag: "🇵🇰"},
	"uz":    {Name: "O'zbek", Flag: "🇺🇿"},
	"vi":    {Name: "Tiếng Việt", Flag: "🇻🇳"},
	"zh-CN": {Name: "简体中文", Flag: "🇨🇳"},
	"zh-TW": {Name: "繁體中文", Flag: "🇹🇼"},
}

// supported lists the codes the translation service accepts, in
// Normalize() form.
var supported = map[string]bool{}

func init() {
	for _, code := range strings.Fields(`
		af sq am ar hy az eu be bn bs bg ca ceb ny zh-CN zh-TW co hr cs da
		nl en eo et tl fi fr fy gl ka de el gu ht ha haw iw he hi hmn hu is
		ig id ga it ja jw kn kk km ko ku ky lo la lv lt lb mk mg ms ml mt mi
		mr mn my ne no or ps fa pl pt pa ro ru sm gd sr st sn sd si sk sl so
		es su sw sv tg ta te th tr uk ur ug uz vi cy xh yi yo zu`) {
		supported[code] = true
	}
}

// Normalize returns the canonical form of a language code: "xx-YY" for
// two-part codes, lower case otherwise. Bare "zh" maps to "zh-CN", the
// only Chinese variant the service accepts without a region.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	parts := strings.Split(code, "-")
	if len(parts) != 2 {
		if code == "zh" {
			return "zh-CN"
		}
		return strings.ToLower(code)
	}
	return strings.ToLower(parts[0]) + "-" + strings.ToUpper(parts[1])
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort language metadata for language codes,
// supporting variants like pt_BR, pt-BR, and locale fallbacks. Codes
// missing from Registry take their native name from CLDR.
func Resolve(lang string) Meta {
	if m, ok := Registry[lang]; ok {
		return m
	}
	normalized := canonicalize(lang)
	if m, ok := Registry[normalized]; ok {
		return m
	}
	if parts := strings.SplitN(normalized, "-", 2); len(parts) == 2 {
		if m, ok := Registry[parts[0]]; ok {
			return m
		}
	}
	if normalized != "" && normalized != Auto {
		if tag, err := language.Parse(normalized); err == nil {
			if name := display.Self.Name(tag); name != "" {
				return Meta{Name: name}
			}
		}
	}
	return Meta{Name: lang, Flag: ""}
}

// Flag returns the emoji flag for a language code, or "" if unknown.
func Flag(lang string) string {
	return Resolve(lang).Flag
}

// Supported reports whether the service accepts code as a translation
// target. Use SupportedSource for the source side, where Auto is valid.
func Supported(code string) bool {
	return supported[Normalize(code)]
}

// SupportedSource is like Supported but also accepts Auto.
func SupportedSource(code string) bool {
	return Normalize(code) == Auto || Supported(code)
}

// Languages returns all supported codes, sorted.
func Languages() []string {
	out := make([]string, 0, len(supported))
	for code := range supported {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
