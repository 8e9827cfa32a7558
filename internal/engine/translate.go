package engine

import (
	"fmt"
	"strings"
)

// Language is a BCP 47 primary language tag such as "en" or "ar"
type Language string

const (
	LangEnglish Language = "en"
	LangArabic  Language = "ar"
)

// Phrasebook maps canonical English text to its translation, per language.
// Lookups are total: anything without an entry comes back unchanged.
type Phrasebook map[Language]map[string]string

// DefaultPhrasebook returns the built-in translations
func DefaultPhrasebook() Phrasebook {
	return Phrasebook{
		LangArabic: {
			MsgACOff:           "أطفئ التكييف في الغرف غير المستخدمة",
			MsgACSetPoint:      "ارفع درجة حرارة التكييف إلى %d°م (توفير ≈0.8 كيلوواط ساعة/ساعة)",
			MsgDelayAppliances: "أجّل تشغيل الأجهزة عالية الاستهلاك إلى خارج أوقات الذروة؛ التوفير المتوقع %.2f %s",
			MsgEcoLighting:     "فعّل وضع الإضاءة الاقتصادية في المساحات المشتركة",
			MsgHabitThermostat: "تم رصد نمط متكرر لاستخدام التكييف المرتفع؛ فكّر في منظم حرارة ذكي",
			MsgSmartPlugs:      "فكّر في استخدام المقابس الذكية للأجهزة الخاملة (توفير محتمل ≈10%)",
			MsgOptimal:         "استهلاكك يبدو مثالياً",
		},
	}
}

// ParseLanguage normalizes tags like "AR", "ar-AE" or "en_US" to their primary language
func ParseLanguage(tag string) Language {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	if tag == "" {
		return LangEnglish
	}
	return Language(tag)
}

// Translate looks up a canonical message. Unknown languages and messages fall back to the input.
func (p Phrasebook) Translate(message string, lang Language) string {
	if translated, ok := p[lang][message]; ok && translated != "" {
		return translated
	}
	return message
}

// Localize renders a piece of advice in lang. The template is translated and the
// same arguments re-applied, so interpolated messages localize too.
func (p Phrasebook) Localize(a Advice, lang Language) string {
	if a.Template == "" {
		return p.Translate(a.Message, lang)
	}
	translated, ok := p[lang][a.Template]
	if !ok || translated == "" {
		return a.Message
	}
	if len(a.Args) == 0 {
		return translated
	}
	return fmt.Sprintf(translated, a.Args...)
}

// LocalizeAll renders every piece of advice in lang, preserving order
func (p Phrasebook) LocalizeAll(advice []Advice, lang Language) []string {
	out := make([]string, len(advice))
	for i, a := range advice {
		out[i] = p.Localize(a, lang)
	}
	return out
}
