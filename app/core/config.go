package core

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/manuscripta/apm/pkg/types"
)

func MustLoadBaseConfig(path string) CoreConfig {
	if path == "" {
		return LoadBaseConfigFromENV()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	conf := &CoreConfig{}
	conf.SetConfigBytes(raw)

	if err = toml.Unmarshal(raw, conf); err != nil {
		panic(err)
	}

	conf.Transcription.SetDefaults()
	return *conf
}

func (c CoreConfig) LoadCustomConfig(cfg any) error {
	if len(c.bytes) == 0 {
		return nil
	}
	if err := toml.Unmarshal(c.bytes, cfg); err != nil {
		return err
	}
	return nil
}

func LoadBaseConfigFromENV() CoreConfig {
	var c CoreConfig
	c.FromENV()
	c.Transcription.SetDefaults()
	return c
}

type CoreConfig struct {
	Addr          string              `toml:"addr"`
	NodeID        int64               `toml:"node_id"` // snowflake 集群号，多实例部署时需要不同
	Log           Log                 `toml:"log"`
	Postgres      PGConfig            `toml:"postgres"`
	Redis         RedisConfig         `toml:"redis"`
	Transcription TranscriptionConfig `toml:"transcription"`

	bytes []byte `toml:"-"`
}

func (c *CoreConfig) SetConfigBytes(raw []byte) {
	c.bytes = raw
}

func (c *CoreConfig) FromENV() {
	c.Addr = os.Getenv("APM_API_SERVICE_ADDRESS")
	if node := os.Getenv("APM_NODE_ID"); node != "" {
		c.NodeID, _ = strconv.ParseInt(node, 10, 64)
	}
	c.Log.FromENV()
	c.Postgres.FromENV()
	c.Redis.FromENV()
	c.Transcription.FromENV()
}

// TranscriptionConfig 转写引擎相关配置
type TranscriptionConfig struct {
	LangCodes       []string `toml:"lang_codes"`        // 允许的元素/条目语言
	DefaultLang     string   `toml:"default_lang"`      // 见证没有条目时使用的语言
	WitnessCacheTTL int      `toml:"witness_cache_ttl"` // 见证缓存有效期（天），默认 30
	CacheKeyPrefix  string   `toml:"cache_key_prefix"`
	SaveLimit       int      `toml:"save_limit"` // 每个编辑者每分钟允许的写请求数，默认 60
}

func (t *TranscriptionConfig) FromENV() {
	if codes := os.Getenv("APM_LANG_CODES"); codes != "" {
		t.LangCodes = strings.Split(codes, ",")
	}
	t.DefaultLang = os.Getenv("APM_DEFAULT_LANG")
	if ttl := os.Getenv("APM_WITNESS_CACHE_TTL"); ttl != "" {
		if days, err := strconv.Atoi(ttl); err == nil {
			t.WitnessCacheTTL = days
		}
	}
	t.CacheKeyPrefix = os.Getenv("APM_CACHE_KEY_PREFIX")
}

func (t *TranscriptionConfig) SetDefaults() {
	if len(t.LangCodes) == 0 {
		t.LangCodes = types.DEFAULT_LANG_CODES
	}
	if t.DefaultLang == "" {
		t.DefaultLang = types.DEFAULT_TRANSCRIPTION_LANG
	}
	if t.WitnessCacheTTL <= 0 {
		t.WitnessCacheTTL = 30
	}
	if t.CacheKeyPrefix == "" {
		t.CacheKeyPrefix = "apm:"
	}
	if t.SaveLimit <= 0 {
		t.SaveLimit = 60
	}
}

func (t TranscriptionConfig) WitnessCacheDuration() time.Duration {
	return time.Duration(t.WitnessCacheTTL) * 24 * time.Hour
}

// IsValidLang 语言必须在配置的列表中
func (t TranscriptionConfig) IsValidLang(lang string) bool {
	for _, code := range t.LangCodes {
		if code == lang {
			return true
		}
	}
	return false
}

type PGConfig struct {
	DSN string `toml:"dsn"`
}

func (m *PGConfig) FromENV() {
	m.DSN = os.Getenv("APM_API_POSTGRESQL_DSN")
}

func (c PGConfig) FormatDSN() string {
	return c.DSN
}

type RedisConfig struct {
	// 单机模式配置
	Addr     string `toml:"addr"`     // Redis地址，格式: host:port
	Password string `toml:"password"` // Redis密码
	DB       int    `toml:"db"`       // Redis数据库索引 (0-15)

	// 集群模式配置
	Cluster       bool     `toml:"cluster"`        // 是否启用集群模式
	ClusterAddrs  []string `toml:"cluster_addrs"`  // 集群节点地址列表
	ClusterPasswd string   `toml:"cluster_passwd"` // 集群密码

	// 连接池配置
	PoolSize     int `toml:"pool_size"`      // 连接池大小，默认10
	MinIdleConns int `toml:"min_idle_conns"` // 最小空闲连接数，默认0
	MaxRetries   int `toml:"max_retries"`    // 最大重试次数，默认3
	DialTimeout  int `toml:"dial_timeout"`   // 连接超时(秒)，默认5
	ReadTimeout  int `toml:"read_timeout"`   // 读超时(秒)，默认3
	WriteTimeout int `toml:"write_timeout"`  // 写超时(秒)，默认3
}

func (r *RedisConfig) FromENV() {
	r.Addr = os.Getenv("APM_REDIS_ADDR")
	r.Password = os.Getenv("APM_REDIS_PASSWORD")
	if dbStr := os.Getenv("APM_REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			r.DB = db
		}
	}
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != "" || (r.Cluster && len(r.ClusterAddrs) > 0)
}

type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

func (l *Log) FromENV() {
	l.Level = os.Getenv("APM_API_LOG_LEVEL")
	l.Path = os.Getenv("APM_API_LOG_PATH")
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
