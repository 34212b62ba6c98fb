package testutils

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/joho/godotenv"
)

// POSTGRESQL_DSN_ENV 集成测试使用的数据库连接串
const POSTGRESQL_DSN_ENV = "APM_TEST_POSTGRESQL_DSN"

// LoadEnv 加载项目根目录下的 .env，文件不存在时忽略
func LoadEnv() error {
	_, filename, _, _ := runtime.Caller(0)
	envPath := filepath.Join(filepath.Dir(filename), "..", "..", ".env")
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		return nil
	}
	// 已存在的环境变量优先
	return godotenv.Load(envPath)
}

// PostgresDSN 返回测试数据库地址，未配置时跳过当前测试
func PostgresDSN(t testing.TB) string {
	t.Helper()
	if err := LoadEnv(); err != nil {
		t.Fatalf("failed to load .env: %v", err)
	}
	dsn := os.Getenv(POSTGRESQL_DSN_ENV)
	if dsn == "" {
		t.Skipf("%s is not set", POSTGRESQL_DSN_ENV)
	}
	return dsn
}
