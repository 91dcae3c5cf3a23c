package agent

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// challengeSignatures are fragments of the anti-bot pages returned by the
// upstream data providers instead of data. Matching is case-sensitive.
var challengeSignatures = []string{
	"captcha-delivery.com",
	"Please enable JS",
	"geo.captcha-delivery",
	"datadome",
}

// IsChallengeResponse reports whether payload looks like a bot-challenge
// page rather than real tool output.
func IsChallengeResponse(payload any) bool {
	if isNil(payload) {
		return false
	}
	text := serialize(payload)
	for _, sig := range challengeSignatures {
		if strings.Contains(text, sig) {
			return true
		}
	}
	return false
}

func serialize(payload any) string {
	switch v := payload.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case json.RawMessage:
		return string(v)
	case error:
		return v.Error()
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(b)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
