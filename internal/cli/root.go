package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/deepresearch/internal/model"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
	logFile string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "deepresearch",
	Short: "Deep research - recursive web research with LLM-guided follow-ups",
	Long: `deepresearch investigates a question by generating search queries,
reading the pages they find, extracting learnings and following the most
promising leads deeper, then writes a sourced markdown report.

Every run records its reasoning, the sources it evaluated and the
contradictions it found, so the final report can be checked.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("deepresearch %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.deepresearch/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write structured logs to this file")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig loads .env files, the config file and DEEPRESEARCH_* variables
func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.secret")

	if err := registerDefaults(viper.GetViper(), model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering defaults: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.deepresearch")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// DEEPRESEARCH_RESEARCH_DEPTH overrides research.depth
	viper.SetEnvPrefix("DEEPRESEARCH")
	viper.SetEnvKeyReplacer(newKeyReplacer())
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func newKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

// registerDefaults makes every config key known to v so environment variables
// can override keys that appear in no config file
func registerDefaults(v *viper.Viper, cfg model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var sections map[string]map[string]any
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	for section, keys := range sections {
		for key, value := range keys {
			v.SetDefault(section+"."+key, value)
		}
	}
	return nil
}

// loadConfig resolves the effective configuration: flags, environment, config file, defaults
func loadConfig() (model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	applyEnvFallbacks(&cfg, os.Getenv)
	return cfg, nil
}

// applyEnvFallbacks fills credentials and the model from the conventional
// provider variables when the config leaves them empty
func applyEnvFallbacks(cfg *model.Config, getenv func(string) string) {
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = getenv("LLM_MODEL_NAME")
	}
	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = getenv("OPENAI_API_KEY")
		}
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = getenv("OPENAI_BASE_URL")
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = getenv("OLLAMA_BASE_URL")
		}
	}

	if cfg.Search.APIKey == "" {
		switch strings.ToLower(cfg.Search.Provider) {
		case "", "tavily":
			cfg.Search.APIKey = getenv("TAVILY_API_KEY")
		case "bing":
			cfg.Search.APIKey = getenv("BING_API_KEY")
		}
	}

	if strings.EqualFold(cfg.Scrape.Provider, "firecrawl") {
		if cfg.Scrape.APIKey == "" {
			cfg.Scrape.APIKey = getenv("FIRECRAWL_API_KEY")
		}
		if cfg.Scrape.BaseURL == "" {
			cfg.Scrape.BaseURL = getenv("FIRECRAWL_BASE_URL")
		}
	}
}

// newLogger builds the CLI logger. Quiet runs only surface warnings; --verbose
// switches to the development encoder at debug level.
func newLogger(verbose bool, logFile string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	if logFile != "" {
		cfg.OutputPaths = []string{logFile}
		if !verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

func printBanner(title string) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  %s\n", title)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
}
