package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultAccessTokenTTL 默认访问令牌有效期
const DefaultAccessTokenTTL = 24 * time.Hour

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 环境变量覆盖，构建最终配置
func Load() (*Config, error) {
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	env := parseEnv(getEnv("APP_ENV", "dev"))

	yamlCfg, err := loadYAMLConfig(env, searchPaths())
	if err != nil {
		return nil, err
	}

	return build(env, yamlCfg)
}

// searchPaths 返回配置目录搜索顺序，CONFIG_DIR 优先
func searchPaths() []string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return append([]string{dir}, configPaths...)
	}
	return configPaths
}

// defaultYAMLConfig 代码内置默认值
func defaultYAMLConfig() *YAMLConfig {
	return &YAMLConfig{
		APIServer: APIServerConfig{Port: "8080"},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    27017,
			Name:    "library",
			Path:    "data/library.db",
			SSLMode: "disable",
		},
		Redis: RedisConfig{Host: "localhost", Port: 6379, DB: 0},
		Auth:  AuthConfig{AccessTokenTTL: DefaultAccessTokenTTL.String()},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → common.yaml → {env}.yaml
func loadYAMLConfig(env Environment, paths []string) (*YAMLConfig, error) {
	cfg := defaultYAMLConfig()

	for _, name := range []string{"common.yaml", fmt.Sprintf("%s.yaml", env)} {
		for _, base := range paths {
			path := filepath.Join(base, name)
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			log.Printf("[Config] Loaded %s", path)
			break
		}
	}

	return cfg, nil
}

// build 合并 YAML 与环境变量
func build(env Environment, y *YAMLConfig) (*Config, error) {
	if v := os.Getenv("API_PORT"); v != "" {
		y.APIServer.Port = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		y.Database.URI = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		y.Database.Driver = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		y.Database.Name = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		y.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		y.Log.Format = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		y.Redis.URL = v
		y.Redis.Enabled = true
	}
	y.Redis.Password = os.Getenv("REDIS_PASSWORD")

	y.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	y.Auth.AdminEmail = os.Getenv("ADMIN_EMAIL")
	y.Auth.AdminPassword = os.Getenv("ADMIN_PASSWORD")

	ttl := DefaultAccessTokenTTL
	if y.Auth.AccessTokenTTL != "" {
		d, err := time.ParseDuration(y.Auth.AccessTokenTTL)
		if err != nil {
			return nil, fmt.Errorf("invalid auth.access_token_ttl %q: %w", y.Auth.AccessTokenTTL, err)
		}
		ttl = d
	}

	driver := detectDatabaseDriver(y.Database.Driver, y.Database.URI)
	y.Database.Driver = driver

	cfg := &Config{
		Env:            env,
		APIPort:        y.APIServer.Port,
		DatabaseDriver: driver,
		DatabaseURL:    buildDatabaseURL(y.Database, os.Getenv("DB_PASSWORD")),
		DatabaseName:   y.Database.Name,
		RedisEnabled:   y.Redis.Enabled,
		RedisURL:       buildRedisURL(y.Redis),
		Auth:           y.Auth,
		AccessTokenTTL: ttl,
		Log:            y.Log,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验必填项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("access token TTL must be positive")
	}
	if (c.Auth.AdminEmail == "") != (c.Auth.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	redis := "disabled"
	if c.RedisEnabled {
		redis = maskPassword(c.RedisURL)
	}
	return fmt.Sprintf("Config{Env: %s, Driver: %s, DB: %s, Redis: %s}",
		c.Env, c.DatabaseDriver, maskPassword(c.DatabaseURL), redis)
}
