package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes text that libinjection classified as SQL injection.
type InjectionCheckResult struct {
	IsSQLi      bool
	Fingerprint string
	Field       string
}

// CheckForInjection runs libinjection over a free-text value. It returns nil
// when the value looks clean.
//
//	CheckForInjection("question", "2023년 주문 총액은?")        // nil
//	CheckForInjection("question", "' OR 1=1--")                // IsSQLi, Fingerprint "s&1c"
func CheckForInjection(field, value string) *InjectionCheckResult {
	if value == "" {
		return nil
	}
	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if !isSQLi {
		return nil
	}
	return &InjectionCheckResult{
		IsSQLi:      true,
		Fingerprint: string(fingerprint),
		Field:       field,
	}
}

// CheckQuestion screens a natural-language question before it is embedded in
// an agent prompt.
func CheckQuestion(question string) *InjectionCheckResult {
	return CheckForInjection("question", question)
}
