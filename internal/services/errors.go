package services

import (
	"errors"
	"strings"
)

// ErrInvalidCredentials はメールアドレスかパスワードが一致しない場合のエラーです。
// どちらが誤っているかは区別しません。
var ErrInvalidCredentials = errors.New("invalid credentials")

// FieldError は入力フィールド単位の検証エラーです。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError は入力検証に失敗したフィールドの一覧を持つエラーです。
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// errOrNil はフィールドエラーが無ければ nil を返します。
func (e *ValidationError) errOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
