// Package config 统一配置管理
//
// 配置加载优先级（高→低）：
//  1. 环境变量（通过 .env 文件或 shell/systemd 注入）
//  2. YAML 配置文件（{env}.yaml，如 dev.yaml、test.yaml、prod.yaml）
//  3. 代码硬编码默认值
//
// 凭据单一数据源：
//
//	密码/密钥只存在 .env 文件或环境变量中（YAML 中不存储任何密码）。
//
// 环境：
//   - 开发: APP_ENV=dev → configs/dev.yaml
//   - 测试: APP_ENV=test → configs/test.yaml
//   - 生产: APP_ENV=prod → configs/prod.yaml（或 CONFIG_DIR 指定的目录）
package config

import "time"

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// 数据库驱动
const (
	DriverMongoDB  = "mongodb"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	APIServer APIServerConfig `yaml:"api_server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
}

// APIServerConfig API Server 配置
type APIServerConfig struct {
	Port string `yaml:"port"`
}

// DatabaseConfig 数据库配置
//
// driver 为空时根据 URI 前缀自动检测，都没有则默认 mongodb
type DatabaseConfig struct {
	Driver  string `yaml:"driver"` // mongodb / postgres / sqlite
	URI     string `yaml:"uri"`    // mongodb 连接串（MONGO_URI 优先）
	Name    string `yaml:"name"`   // 数据库名
	Path    string `yaml:"path"`   // sqlite 文件路径
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	User    string `yaml:"user"`
	SSLMode string `yaml:"sslmode"`
}

// RedisConfig Redis 配置，未启用时通知只在进程内推送
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       int    `yaml:"db"`
	Password string `yaml:"-"` // 只从 REDIS_PASSWORD 环境变量读取
}

// AuthConfig 认证配置
// 注意：JWTSecret/AdminEmail/AdminPassword 只从环境变量读取，不存储在 YAML 中
type AuthConfig struct {
	JWTSecret      string `yaml:"-"`                // JWT_SECRET
	AccessTokenTTL string `yaml:"access_token_ttl"` // 例如 "24h"
	AdminEmail     string `yaml:"-"`                // ADMIN_EMAIL
	AdminPassword  string `yaml:"-"`                // ADMIN_PASSWORD
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json / text
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env            Environment
	APIPort        string
	DatabaseDriver string
	DatabaseURL    string
	DatabaseName   string
	RedisEnabled   bool
	RedisURL       string
	Auth           AuthConfig
	AccessTokenTTL time.Duration
	Log            LogConfig
}
