package azure

import "golang.org/x/text/language"

// supportedLocales is the real-time speech to text locale list of Azure.
var supportedLocales = mustParse(
	"af-ZA", "am-ET", "ar-AE", "ar-EG", "ar-SA", "bg-BG", "bn-IN", "ca-ES", "cs-CZ", "cy-GB",
	"da-DK", "de-AT", "de-CH", "de-DE", "el-GR", "en-AU", "en-CA", "en-GB", "en-IE", "en-IN",
	"en-NZ", "en-US", "en-ZA", "es-AR", "es-ES", "es-MX", "es-US", "et-EE", "eu-ES", "fa-IR",
	"fi-FI", "fil-PH", "fr-BE", "fr-CA", "fr-CH", "fr-FR", "ga-IE", "gl-ES", "gu-IN", "he-IL",
	"hi-IN", "hr-HR", "hu-HU", "hy-AM", "id-ID", "is-IS", "it-IT", "ja-JP", "ka-GE", "kk-KZ",
	"km-KH", "kn-IN", "ko-KR", "lo-LA", "lt-LT", "lv-LV", "mk-MK", "ml-IN", "mn-MN", "mr-IN",
	"ms-MY", "mt-MT", "my-MM", "nb-NO", "ne-NP", "nl-BE", "nl-NL", "pl-PL", "pt-BR", "pt-PT",
	"ro-RO", "ru-RU", "si-LK", "sk-SK", "sl-SI", "sq-AL", "sr-RS", "sv-SE", "sw-KE", "ta-IN",
	"te-IN", "th-TH", "tr-TR", "uk-UA", "ur-IN", "uz-UZ", "vi-VN", "zh-CN", "zh-HK", "zh-TW",
	"zu-ZA",
)

func mustParse(locales ...string) []language.Tag {
	tags := make([]language.Tag, len(locales))
	for i, l := range locales {
		tags[i] = language.MustParse(l)
	}
	return tags
}
