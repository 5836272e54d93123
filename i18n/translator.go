package i18n

import "sync/atomic"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"parse_error":    "parse error",
		"duplicate_key":  "duplicate key",
		"truncated":      "input exceeds the size limit",
		"required":       "required field missing",
		"unknown_key":    "unknown key",
		"schema_misuse":  "invalid schema declaration",
		"invalid_type":   "invalid type",
		"invalid_format": "invalid format",
		"invalid_enum":   "value is not one of the allowed values",
		"pattern":        "value does not match the pattern",
		"too_short":      "too short",
		"too_long":       "too long",
		"too_small":      "too small",
		"too_big":        "too big",
		"empty":          "a value is required",
		"custom":         "invalid value",
	},
	"ja": {
		"parse_error":    "解析エラー",
		"duplicate_key":  "キーが重複しています",
		"truncated":      "入力がサイズ上限を超えています",
		"required":       "必須フィールドがありません",
		"unknown_key":    "未知のキーです",
		"schema_misuse":  "スキーマ定義が不正です",
		"invalid_type":   "型が不正です",
		"invalid_format": "形式が不正です",
		"invalid_enum":   "許可された値ではありません",
		"pattern":        "パターンに一致しません",
		"too_short":      "短すぎます",
		"too_long":       "長すぎます",
		"too_small":      "小さすぎます",
		"too_big":        "大きすぎます",
		"empty":          "値を入力してください",
		"custom":         "値が不正です",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	if msg, ok := dictionaries[t.lang][code]; ok {
		return msg
	}
	return code
}

type holder struct{ tr Translator }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{tr: dictTranslator{lang: "en"}}) }

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := dictionaries[lang]; !ok {
		lang = "en"
	}
	current.Store(&holder{tr: dictTranslator{lang: lang}})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	current.Store(&holder{tr: tr})
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return current.Load().tr.Message(code, data) }
