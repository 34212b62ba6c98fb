package safe

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
)

// maxFrames 日志中最多保留的栈行数
const maxFrames = 20

// Run 执行 fn，panic 时记录日志并转成 error 返回
func Run(component string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered",
				slog.Any("recover", r),
				slog.String("component", component),
				slog.String("stack", stackTrace()),
			)
			err = fmt.Errorf("%s: panic: %v", component, r)
		}
	}()

	fn()
	return nil
}

// Go 在新的 goroutine 中执行 fn，panic 不会让进程退出
func Go(component string, fn func()) {
	go func() {
		_ = Run(component, fn)
	}()
}

func stackTrace() string {
	lines := strings.Split(string(debug.Stack()), "\n")
	formatted := make([]string, 0, maxFrames+1)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(formatted) == maxFrames {
			formatted = append(formatted, "... (truncated)")
			break
		}
		formatted = append(formatted, line)
	}
	return strings.Join(formatted, "\n")
}
