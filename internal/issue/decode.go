package issue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UnmarshalJSON decodes p from a JSON object. Fields with an unexpected type
// are dropped instead of failing the decode; only a value that is not an
// object (or null) is an error.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("issue payload is not a JSON object: %w", err)
	}

	*p = Payload{
		Title:     scalarText(fields["title"]),
		Body:      scalarText(fields["body"]),
		Number:    intValue(fields["number"]),
		State:     truthyText(fields["state"]),
		User:      userValue(fields["user"]),
		CreatedAt: truthyText(fields["created_at"]),
		UpdatedAt: truthyText(fields["updated_at"]),
	}
	return nil
}

// Truthy reports whether raw is a present JSON value other than null, false,
// 0 or "".
func Truthy(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}

// scalarText renders a string, number or boolean as text. Objects, arrays,
// null and absent values give "".
func scalarText(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64, bool:
		return string(bytes.TrimSpace(raw))
	default:
		return ""
	}
}

func truthyText(raw json.RawMessage) string {
	if !Truthy(raw) {
		return ""
	}
	return scalarText(raw)
}

// intValue accepts an integral JSON number or a string holding one. Anything
// else, including fractions, is dropped as 0.
func intValue(raw json.RawMessage) int {
	text := strings.TrimSpace(string(raw))
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		text = strings.TrimSpace(s)
	}
	if text == "" {
		return 0
	}

	if n, err := strconv.Atoi(text); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0
	}
	return int(f)
}

// userValue keeps any JSON object as a present user; its login is taken only
// when it is a string.
func userValue(raw json.RawMessage) *User {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil
	}
	u := &User{}
	_ = json.Unmarshal(fields["login"], &u.Login)
	return u
}
