package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

type AppConfig struct {
	Logging         LoggingConfig    `yaml:"logging"`
	Identity        IdentityConfig   `yaml:"identity"`
	Mongo           MongoConfig      `yaml:"mongo"`
	Generation      GenerationConfig `yaml:"generation"`
	Content         ContentConfig    `yaml:"content"`
	Posting         PostingConfig    `yaml:"posting"`
	Trends          TrendsConfig     `yaml:"trends"`
	Activity        ActivityConfig   `yaml:"activity"`
	GenerationQuota GenerationQuota  `yaml:"generation_quota"`
	API             APIConfig        `yaml:"api"`
	EventBus        EventBusConfig   `yaml:"eventbus"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// IdentityConfig 는 인증 없이 동작하는 현재 구조에서 사용할 고정 사용자 키를 정의한다.
type IdentityConfig struct {
	Default string `yaml:"default"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// GenerationConfig 는 게시글 생성용 LLM 호출 설정이다.
type GenerationConfig struct {
	Provider    string        `yaml:"provider"`
	ModelName   string        `yaml:"model_name"`
	MaxTokens   int32         `yaml:"max_tokens"`
	Temperature float32       `yaml:"temperature"`
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

type ContentConfig struct {
	// MaxLength 는 생성된 본문의 최대 글자 수(rune 기준)이다.
	MaxLength int `yaml:"max_length"`
}

// PostingConfig 는 X 게시 호출 설정이다.
// Enabled 가 false 이면 생성까지만 수행하고 게시는 건너뛴다.
type PostingConfig struct {
	Enabled     bool          `yaml:"enabled"`
	BaseURL     string        `yaml:"base_url"`
	MaxLength   int           `yaml:"max_length"`
	MaxAttempts int           `yaml:"max_attempts"`
	Delay       time.Duration `yaml:"delay"`
	Timeout     time.Duration `yaml:"timeout"`
}

type TrendsConfig struct {
	PageSize int           `yaml:"page_size"`
	Timeout  time.Duration `yaml:"timeout"`
	Sources  []TrendSource `yaml:"sources"`
}

// TrendSource 는 트렌드 피드 하나다. 선언 순서가 곧 혼합 순서다.
type TrendSource struct {
	Name    string `yaml:"name"`
	FeedURL string `yaml:"feed_url"`
}

type ActivityConfig struct {
	Window time.Duration `yaml:"window"`
	Limit  int           `yaml:"limit"`
}

// GenerationQuota 는 LLM 호출에 대한 속도/일일 한도를 정의한다.
type GenerationQuota struct {
	// RequestsPerMinute 는 분당 최대 요청 수이다. 0 이하면 제한 없음으로 간주한다.
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// RequestsPerDay 는 일일 최대 요청 수이다. 0 이하면 제한 없음으로 간주한다.
	RequestsPerDay int `yaml:"requests_per_day"`
}

type APIConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type EventBusConfig struct {
	Topic      string `yaml:"topic"`
	Partitions int    `yaml:"partitions"`
}

var config *AppConfig

func InitApp() {
	// 환경 변수 로드
	godotenv.Load(filepath.Join(GetBasePath(), ENV_FILE))

	c, err := LoadFile(filepath.Join(GetBasePath(), CONFIG_FILE))
	if err != nil {
		panic(err)
	}
	config = &c
}

// LoadFile 은 yaml 설정 파일을 읽고 비어 있는 값을 기본값으로 채운다.
func LoadFile(path string) (AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var c AppConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return AppConfig{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return c.withDefaults(), nil
}

func GetConfig() AppConfig {
	if config == nil {
		InitApp()
	}

	return *config
}

// SetConfig 는 전역 설정을 교체한다. 테스트와 CLI 에서 쓴다.
func SetConfig(c AppConfig) {
	c = c.withDefaults()
	config = &c
}

func (c AppConfig) withDefaults() AppConfig {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Identity.Default == "" {
		c.Identity.Default = "default"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "autopost"
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = "google"
	}
	if c.Generation.ModelName == "" {
		c.Generation.ModelName = "gemini-2.5-flash"
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 1024
	}
	if c.Generation.Temperature <= 0 {
		c.Generation.Temperature = 0.9
	}
	if c.Generation.MaxAttempts <= 0 {
		c.Generation.MaxAttempts = 3
	}
	if c.Generation.BaseDelay <= 0 {
		c.Generation.BaseDelay = time.Second
	}
	if c.Content.MaxLength <= 0 {
		c.Content.MaxLength = 280
	}
	if c.Posting.BaseURL == "" {
		c.Posting.BaseURL = "https://api.x.com"
	}
	if c.Posting.MaxLength <= 0 {
		c.Posting.MaxLength = 280
	}
	if c.Posting.MaxAttempts <= 0 {
		c.Posting.MaxAttempts = 2
	}
	if c.Posting.Delay <= 0 {
		c.Posting.Delay = 3 * time.Second
	}
	if c.Posting.Timeout <= 0 {
		c.Posting.Timeout = 30 * time.Second
	}
	if c.Trends.PageSize <= 0 {
		c.Trends.PageSize = 5
	}
	if c.Trends.Timeout <= 0 {
		c.Trends.Timeout = 10 * time.Second
	}
	if c.Activity.Window <= 0 {
		c.Activity.Window = 72 * time.Hour
	}
	if c.Activity.Limit <= 0 {
		c.Activity.Limit = 5
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
	if c.EventBus.Topic == "" {
		c.EventBus.Topic = "autopost.generation.events"
	}
	if c.EventBus.Partitions <= 0 {
		c.EventBus.Partitions = 3
	}
	return c
}

// MongoURI 는 환경변수 MONGO_URI 를 우선 사용하고, 없으면 config.yaml 값을 사용한다.
func (c AppConfig) MongoURI() string {
	if v := os.Getenv("MONGO_URI"); v != "" {
		return v
	}
	return c.Mongo.URI
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
