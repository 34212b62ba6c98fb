// Package register 按 key 收集初始化函数，例如各个数据表向 sqlstore.Provider 注册自己
package register

import "sync"

type Handler[T any] func(T)

var (
	locker   sync.RWMutex
	handlers = make(map[any][]any)
)

// RegisterFunc 同一个 key 下按注册顺序保存
func RegisterFunc[T any](key any, handler Handler[T]) {
	locker.Lock()
	defer locker.Unlock()
	handlers[key] = append(handlers[key], handler)
}

// ResolveFuncHandlers 只返回参数类型为 T 的函数
func ResolveFuncHandlers[T any](key any) []Handler[T] {
	locker.RLock()
	defer locker.RUnlock()

	var result []Handler[T]
	for _, v := range handlers[key] {
		if h, ok := v.(Handler[T]); ok {
			result = append(result, h)
		}
	}
	return result
}
