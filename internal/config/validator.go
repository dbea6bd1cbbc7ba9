package config

import (
	"fmt"
	"os"
	"strings"
)

// ConfigValidator 配置验证器
type ConfigValidator struct {
	config *Config
}

// NewValidator 创建配置验证器
func NewValidator(config *Config) *ConfigValidator {
	return &ConfigValidator{
		config: config,
	}
}

// Validate 验证配置
func (v *ConfigValidator) Validate() error {
	var errors []string

	// 验证应用配置
	if err := v.validateApp(); err != nil {
		errors = append(errors, fmt.Sprintf("应用配置错误: %v", err))
	}

	// 验证服务器配置
	if err := v.validateServer(); err != nil {
		errors = append(errors, fmt.Sprintf("服务器配置错误: %v", err))
	}

	// 验证数据库配置
	if err := v.validateDatabase(); err != nil {
		errors = append(errors, fmt.Sprintf("数据库配置错误: %v", err))
	}

	// 验证Redis配置
	if err := v.validateRedis(); err != nil {
		errors = append(errors, fmt.Sprintf("Redis配置错误: %v", err))
	}

	// 验证JWT配置
	if err := v.validateJWT(); err != nil {
		errors = append(errors, fmt.Sprintf("JWT配置错误: %v", err))
	}

	// 验证限流配置
	if err := v.validateRateLimit(); err != nil {
		errors = append(errors, fmt.Sprintf("限流配置错误: %v", err))
	}

	// 验证自助法配置
	if err := v.validateBootstrap(); err != nil {
		errors = append(errors, fmt.Sprintf("自助法配置错误: %v", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("配置验证失败:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}

// validateApp 验证应用配置
func (v *ConfigValidator) validateApp() error {
	app := v.config.App

	if app.Name == "" {
		return fmt.Errorf("应用名称不能为空")
	}

	if app.Version == "" {
		return fmt.Errorf("应用版本不能为空")
	}

	if app.Env == "" {
		return fmt.Errorf("应用环境不能为空")
	}

	validEnvironments := []string{"development", "staging", "production"}
	valid := false
	for _, env := range validEnvironments {
		if app.Env == env {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("无效的环境: %s, 有效值: %v", app.Env, validEnvironments)
	}

	return nil
}

// validateServer 验证服务器配置
func (v *ConfigValidator) validateServer() error {
	server := v.config.Server

	if server.Port <= 0 || server.Port > 65535 {
		return fmt.Errorf("无效的端口号: %d", server.Port)
	}

	if server.ReadTimeout <= 0 {
		return fmt.Errorf("读取超时必须大于0")
	}

	if server.WriteTimeout <= 0 {
		return fmt.Errorf("写入超时必须大于0")
	}

	if server.MaxHeaderBytes <= 0 {
		return fmt.Errorf("最大头部字节数必须大于0")
	}

	return nil
}

// validateDatabase 验证数据库配置
func (v *ConfigValidator) validateDatabase() error {
	db := v.config.Database

	if db.Host == "" {
		return fmt.Errorf("数据库主机不能为空")
	}

	if db.Port <= 0 || db.Port > 65535 {
		return fmt.Errorf("无效的数据库端口: %d", db.Port)
	}

	if db.User == "" {
		return fmt.Errorf("数据库用户名不能为空")
	}

	if db.DBName == "" {
		return fmt.Errorf("数据库名称不能为空")
	}

	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	valid := false
	for _, mode := range validSSLModes {
		if db.SSLMode == mode {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("无效的SSL模式: %s, 有效值: %v", db.SSLMode, validSSLModes)
	}

	if db.MaxOpen <= 0 {
		return fmt.Errorf("最大连接数必须大于0")
	}

	if db.MaxIdle < 0 {
		return fmt.Errorf("最大空闲连接数不能为负数")
	}

	if db.MaxIdle > db.MaxOpen {
		return fmt.Errorf("最大空闲连接数不能大于最大连接数")
	}

	if db.Timeout <= 0 {
		return fmt.Errorf("连接超时必须大于0")
	}

	return nil
}

// validateRedis 验证Redis配置
func (v *ConfigValidator) validateRedis() error {
	redis := v.config.Redis

	if redis.Addr == "" {
		return fmt.Errorf("Redis地址不能为空")
	}

	if !strings.Contains(redis.Addr, ":") {
		return fmt.Errorf("无效的Redis地址格式: %s", redis.Addr)
	}

	if redis.DB < 0 || redis.DB > 15 {
		return fmt.Errorf("无效的Redis数据库编号: %d", redis.DB)
	}

	if redis.PoolSize <= 0 {
		return fmt.Errorf("Redis连接池大小必须大于0")
	}

	return nil
}

// validateJWT 验证JWT配置
func (v *ConfigValidator) validateJWT() error {
	jwt := v.config.JWT

	if jwt.SecretKey == "" {
		return fmt.Errorf("JWT密钥不能为空")
	}

	if len(jwt.SecretKey) < 32 {
		return fmt.Errorf("JWT密钥长度必须至少32个字符")
	}

	if jwt.Duration <= 0 {
		return fmt.Errorf("JWT有效期必须大于0")
	}

	return nil
}

// validateRateLimit 验证限流配置
func (v *ConfigValidator) validateRateLimit() error {
	rl := v.config.RateLimit

	if !rl.Enabled {
		return nil
	}

	if rl.RequestsPerMinute <= 0 {
		return fmt.Errorf("每分钟请求数必须大于0")
	}

	if rl.Burst <= 0 {
		return fmt.Errorf("突发请求数必须大于0")
	}

	return nil
}

// validateBootstrap 验证自助法默认参数配置
func (v *ConfigValidator) validateBootstrap() error {
	b := v.config.Bootstrap

	if b.DefaultReplicates < 400 {
		return fmt.Errorf("默认重复次数必须至少为400")
	}

	if b.DefaultConfidenceLevel <= 0.5 || b.DefaultConfidenceLevel >= 1.0 {
		return fmt.Errorf("默认置信水平必须在(0.5,1)之间")
	}

	validPolicies := []string{"adaptive", "fixed"}
	valid := false
	for _, p := range validPolicies {
		if b.DefaultRatioPolicy == p {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("无效的比例策略: %s, 有效值: %v", b.DefaultRatioPolicy, validPolicies)
	}

	if b.ProbeReplicates <= 0 {
		return fmt.Errorf("探测重复次数必须大于0")
	}

	if b.RefinementWindow.Min <= 0 || b.RefinementWindow.Max <= b.RefinementWindow.Min {
		return fmt.Errorf("细化窗口范围无效: [%d,%d]", b.RefinementWindow.Min, b.RefinementWindow.Max)
	}

	if b.MaxDegenerateFraction <= 0 || b.MaxDegenerateFraction >= 1.0 {
		return fmt.Errorf("最大退化比例必须在(0,1)之间")
	}

	return nil
}

// ValidateRequired 验证必需的环境变量
func (v *ConfigValidator) ValidateRequired() error {
	required := []string{
		"QCAT_DATABASE_PASSWORD",
		"QCAT_JWT_SECRET_KEY",
	}

	var missing []string
	for _, key := range required {
		if v.config.getEnvValue(key) == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("缺少必需的环境变量: %v", missing)
	}

	return nil
}

// getEnvValue 获取环境变量值（辅助方法）
func (c *Config) getEnvValue(key string) string {
	return os.Getenv(key)
}
