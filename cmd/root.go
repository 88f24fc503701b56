package cmd

import (
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-scorer/internal/headhunter"
	"github.com/spigell/hh-scorer/internal/logger"
	"github.com/spigell/hh-scorer/internal/web"
)

const (
	app = "hh-scorer"

	dotEnvFile = ".env"
)

type Config struct {
	Fetch     *FetchConfig   `mapstructure:"fetch"`
	Render    *RenderConfig  `mapstructure:"render"`
	Selectors map[string]any `mapstructure:"selectors"`
	AI        *AIConfig      `mapstructure:"ai"`
	Serve     *ServeConfig   `mapstructure:"serve"`
}

type FetchConfig struct {
	UserAgent        string        `mapstructure:"user-agent"`
	Timeout          time.Duration `mapstructure:"timeout"`
	AllowErrorStatus bool          `mapstructure:"allow-error-status"`
	Parallel         bool          `mapstructure:"parallel"`
}

type RenderConfig struct {
	DescriptionFormat string `mapstructure:"description-format"`
}

type AIConfig struct {
	Provider        string        `mapstructure:"provider"`
	MinimumFitScore float64       `mapstructure:"minimum-fit-score"`
	Gemini          *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey          string  `mapstructure:"api-key" json:"-"`
	APIKeyFile      string  `mapstructure:"api-key-file"`
	Model           string  `mapstructure:"model"`
	MaxRetries      int     `mapstructure:"max-retries"`
	MaxLogLength    int     `mapstructure:"max-log-length"`
	Temperature     float32 `mapstructure:"temperature"`
	MaxOutputTokens int32   `mapstructure:"max-output-tokens"`
}

type ServeConfig struct {
	Address string `mapstructure:"address"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hh-scorer scores hh.ru resumes against vacancies with an LLM",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults(viper.GetViper())

	if err := viper.BindEnv("ai.gemini.api-key", "GEMINI_API_KEY"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hh-scorer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("fetch.timeout", headhunter.DefaultTimeout)
	v.SetDefault("fetch.allow-error-status", false)
	v.SetDefault("fetch.parallel", false)
	v.SetDefault("render.description-format", formatText)
	v.SetDefault("ai.provider", providerGemini)
	v.SetDefault("ai.minimum-fit-score", 0)
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("ai.gemini.temperature", 0)
	v.SetDefault("ai.gemini.max-output-tokens", 1000)
	v.SetDefault("serve.address", web.DefaultAddress)
}

func initConfig() {
	if versionCmd.CalledAs() != "" {
		return
	}

	// Variables already set in the environment win over the file.
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading %s: %v", dotEnvFile, err)
	}

	if err := readConfig(viper.GetViper(), cfgFile); err != nil {
		log.Fatal(err)
	}
}

// readConfig reads an explicit config file or, when none is given, an optional
// hh-scorer.yaml from the current directory.
func readConfig(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
		return v.ReadInConfig()
	}

	v.AddConfigPath(".")
	v.SetConfigName(app)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	return nil
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Fetch == nil {
		config.Fetch = &FetchConfig{}
	}
	if config.Render == nil {
		config.Render = &RenderConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Serve == nil {
		config.Serve = &ServeConfig{}
	}

	return config, nil
}

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}
