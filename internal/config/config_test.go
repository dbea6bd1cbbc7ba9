package config

import (
	"context"
	"os"
	"testing"
	"time"

	"qcat/internal/testutils"
)

func TestLoadConfig(t *testing.T) {
	suite := testutils.NewTestSuite(t, nil)
	defer suite.TearDown()

	configContent := `
app:
  name: "QCAT Test"
  version: "1.0.0"
  env: "development"

server:
  port: 8080
  host: "localhost"

database:
  host: "localhost"
  port: 5432
  user: "test"
  password: "test"
  dbname: "qcat_test"
  sslmode: "disable"

redis:
  addr: "localhost:6379"
  password: ""
  db: 0
`

	configPath := suite.CreateTempFile("config.yaml", configContent)

	config, err := Load(configPath)
	suite.Logger.Info("Loading config", "path", configPath)

	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.App.Name != "QCAT Test" {
		t.Errorf("Expected app name 'QCAT Test', got '%s'", config.App.Name)
	}

	if config.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", config.Server.Port)
	}

	if config.Database.Host != "localhost" {
		t.Errorf("Expected database host 'localhost', got '%s'", config.Database.Host)
	}

	// Load fills in the default bootstrap section when the file omits it.
	if config.Bootstrap.DefaultReplicates != 400 {
		t.Errorf("Expected default bootstrap replicates 400, got %d", config.Bootstrap.DefaultReplicates)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error loading nonexistent config file, got nil")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name        string
		config      *Config
		expectError bool
	}{
		{
			name: "valid config",
			config: &Config{
				App: AppConfig{
					Name:    "QCAT",
					Version: "1.0.0",
					Env:     "production",
				},
				Server: ServerConfig{
					Port:           8080,
					Host:           "localhost",
					ReadTimeout:    time.Second,
					WriteTimeout:   time.Second,
					MaxHeaderBytes: 1 << 20,
				},
				Database: DatabaseConfig{
					Host:    "localhost",
					Port:    5432,
					User:    "qcat",
					DBName:  "qcat",
					SSLMode: "disable",
					MaxOpen: 10,
					MaxIdle: 5,
					Timeout: time.Second,
				},
				Redis: RedisConfig{
					Addr:     "localhost:6379",
					DB:       0,
					PoolSize: 10,
				},
				JWT: JWTConfig{
					SecretKey: "a-secret-key-that-is-at-least-32-chars",
					Duration:  time.Hour,
				},
				Bootstrap: DefaultBootstrapConfig(),
			},
			expectError: false,
		},
		{
			name: "invalid port",
			config: &Config{
				App:      AppConfig{Name: "QCAT", Version: "1.0.0", Env: "production"},
				Server:   ServerConfig{Port: -1, Host: "localhost", ReadTimeout: time.Second, WriteTimeout: time.Second, MaxHeaderBytes: 1},
				Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "qcat", DBName: "qcat", SSLMode: "disable", MaxOpen: 10, Timeout: time.Second},
				Redis:    RedisConfig{Addr: "localhost:6379", PoolSize: 10},
				JWT:      JWTConfig{SecretKey: "a-secret-key-that-is-at-least-32-chars", Duration: time.Hour},
				Bootstrap: DefaultBootstrapConfig(),
			},
			expectError: true,
		},
		{
			name: "empty app name",
			config: &Config{
				App:      AppConfig{Name: "", Version: "1.0.0", Env: "production"},
				Server:   ServerConfig{Port: 8080, Host: "localhost", ReadTimeout: time.Second, WriteTimeout: time.Second, MaxHeaderBytes: 1},
				Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "qcat", DBName: "qcat", SSLMode: "disable", MaxOpen: 10, Timeout: time.Second},
				Redis:    RedisConfig{Addr: "localhost:6379", PoolSize: 10},
				JWT:      JWTConfig{SecretKey: "a-secret-key-that-is-at-least-32-chars", Duration: time.Hour},
				Bootstrap: DefaultBootstrapConfig(),
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidator(tt.config).Validate()
			if tt.expectError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no validation error, got: %v", err)
			}
		})
	}
}

func TestConfigWatcher(t *testing.T) {
	suite := testutils.NewTestSuite(t, nil)
	defer suite.TearDown()

	configContent := `
optimizer:
  grid_search:
    default_grid_size: 10
  walk_forward:
    train_ratio: 0.6
    validation_ratio: 0.2
    test_ratio: 0.2
elimination:
  window_size_days: 30
risk_management:
  position:
    max_weight_percent: 10
performance:
  trading_days_per_year: 252
`
	configPath := suite.CreateTempFile("algorithm.yaml", configContent)

	watcher := NewConfigWatcher(configPath, 50*time.Millisecond)

	changed := make(chan struct{}, 1)
	watcher.AddCallback(func(cfg *AlgorithmConfig) error {
		select {
		case changed <- struct{}{}:
		default:
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Start(ctx)
	defer watcher.Stop()

	newContent := `
optimizer:
  grid_search:
    default_grid_size: 20
  walk_forward:
    train_ratio: 0.6
    validation_ratio: 0.2
    test_ratio: 0.2
elimination:
  window_size_days: 30
risk_management:
  position:
    max_weight_percent: 10
performance:
  trading_days_per_year: 252
`
	if err := os.WriteFile(configPath, []byte(newContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Error("config change should be detected")
	}
}
