package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
		// CORS origins; empty keeps the router's localhost defaults
		AllowedOrigins []string `mapstructure:"allowedOrigins"`
	} `mapstructure:"server"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	CityStore struct {
		// Backend is either "dynamodb" or "postgres".
		Backend string `mapstructure:"backend"`
		Table   string `mapstructure:"table"`
	} `mapstructure:"cityStore"`
	Inference struct {
		// Provider is either "bedrock" or "gemini".
		Provider     string `mapstructure:"provider"`
		ModelID      string `mapstructure:"modelID"`
		GeminiModel  string `mapstructure:"geminiModel"`
		GeminiAPIKey string `mapstructure:"geminiAPIKey"`
	} `mapstructure:"inference"`
	KnowledgeBase struct {
		ID        string        `mapstructure:"id"`
		ModelArn  string        `mapstructure:"modelArn"`
		CacheTTL  time.Duration `mapstructure:"cacheTTL"`
		RateLimit float64       `mapstructure:"rateLimit"`
		Burst     int           `mapstructure:"burst"`
	} `mapstructure:"knowledgeBase"`
	Diagnostics struct {
		JWTSecret string `mapstructure:"jwtSecret"`
	} `mapstructure:"diagnostics"`
	Memwatch struct {
		Namespace string        `mapstructure:"namespace"`
		Processes []string      `mapstructure:"processes"`
		Interval  time.Duration `mapstructure:"interval"`
	} `mapstructure:"memwatch"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// KNOWLEDGEBASE_ID overrides knowledgeBase.id, and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// deployed stacks export the id as KNOWLEDGE_BASE_ID
	if err := v.BindEnv("knowledgeBase.id", "KNOWLEDGEBASE_ID", "KNOWLEDGE_BASE_ID"); err != nil {
		return Config{}, fmt.Errorf("failed to bind knowledge base env: %w", err)
	}

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

// KnowledgeBaseModelArn returns the configured retrieval model ARN, or the
// foundation-model ARN derived from the inference model id when none is set.
// The second return value reports whether the ARN was derived.
func (c Config) KnowledgeBaseModelArn() (string, bool) {
	if c.KnowledgeBase.ModelArn != "" {
		return c.KnowledgeBase.ModelArn, false
	}
	return fmt.Sprintf("arn:aws:bedrock:%s::foundation-model/%s", c.AWS.Region, c.Inference.ModelID), true
}
