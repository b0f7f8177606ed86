package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrTokenNotFound は確認トークンに対応する購読が存在しない場合のエラー。
var ErrTokenNotFound = errors.New("no subscription is associated with the confirmation token")

// StoreError は永続化処理の失敗を表す。
// 接続不可や制約違反を含み、自動リトライは行わない。
type StoreError struct {
	Op  string // 失敗したストア操作: insert_pending, store_token, confirm など
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

// Unwrap は元のエラーを返す。
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Conflict は一意制約違反による失敗かどうかを判定する。
func (e *StoreError) Conflict() bool {
	var pqErr *pq.Error
	if errors.As(e.Err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}
	return false
}
