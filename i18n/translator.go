package i18n

// Failure codes with built-in messages.
const (
	CodeTypeMismatch   = "type_mismatch"
	CodeMissingField   = "missing_field"
	CodeUnknownKey     = "unknown_key"
	CodeRecursionLimit = "recursion_limit"
	CodeUnmappable     = "unmappable_construct"
)

// Translator retrieves localized messages for failure codes. data provides
// optional metadata to embed in the message (for example, "type" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case CodeTypeMismatch:
			if ty, ok := data["type"]; ok {
				return "型が不正です (" + ty + " が必要)"
			}
			return "型が不正です"
		case CodeMissingField:
			return "必須プロパティが不足しています"
		case CodeUnknownKey:
			return "未知のキーです"
		case CodeRecursionLimit:
			return "再帰の上限を超えました"
		case CodeUnmappable:
			return "対応するマッピングがありません"
		}
	default: // "en"
		switch code {
		case CodeTypeMismatch:
			if ty, ok := data["type"]; ok {
				return "must be of type " + ty
			}
			return "type mismatch"
		case CodeMissingField:
			if k, ok := data["key"]; ok {
				return "must have the required entry: " + k
			}
			return "required property missing"
		case CodeUnknownKey:
			if k, ok := data["key"]; ok {
				return "additional entries not allowed: " + k
			}
			return "unknown key"
		case CodeRecursionLimit:
			return "recursion limit exceeded"
		case CodeUnmappable:
			return "no mapping for construct"
		}
	}
	return code
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
