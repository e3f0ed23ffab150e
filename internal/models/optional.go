package models

import (
	"bytes"
	"encoding/json"
)

// Optional は部分更新用の三状態フィールドです。
//   - Set == false: JSONにキーが無い (変更しない)
//   - Set && Null: 明示的な null
//   - Set && !Null: 値あり
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some は値ありのOptionalを返します。
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null は明示的なnullのOptionalを返します。
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON はキーが存在するときだけ呼ばれるので、ここで Set を立てます。
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON は未設定とnullをどちらも null として出力します。
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
