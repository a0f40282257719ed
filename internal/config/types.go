package config

// Config is the main configuration carrier for quorum.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	AI       AIConfig       `mapstructure:"ai"`
	Market   MarketConfig   `mapstructure:"market"`
	Trading  TradingConfig  `mapstructure:"trading"`
	Policy   PolicyConfig   `mapstructure:"policy"`
	Prompt   PromptConfig   `mapstructure:"prompt"`
	Store    StoreConfig    `mapstructure:"store"`
	Learning LearningConfig `mapstructure:"learning"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	HTTPAddr string `mapstructure:"http_addr"`
	LogPath  string `mapstructure:"log_path"`
	LLMLog   string `mapstructure:"llm_log_path"`
}

// Development reports whether error detail may be exposed at the HTTP
// boundary.
func (a AppConfig) Development() bool {
	return a.Env == "development" || a.Env == "dev"
}

type AIConfig struct {
	Models         []ModelConfig `mapstructure:"models"`
	TimeoutSeconds int           `mapstructure:"timeout_seconds"`
}

// ModelConfig describes one provider adapter. APIKey values of the form
// ${ENV_NAME} are expanded at load time so credentials stay out of the
// config file; an empty key leaves the adapter in unconfigured (demo) mode.
type ModelConfig struct {
	ID      string `mapstructure:"id"`
	APIURL  string `mapstructure:"api_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Enabled bool   `mapstructure:"enabled"`
}

type MarketConfig struct {
	Symbols        []string `mapstructure:"symbols"`
	QuoteCurrency  string   `mapstructure:"quote_currency"`
	CandleInterval string   `mapstructure:"candle_interval"`
	CandleLimit    int      `mapstructure:"candle_limit"`
	UseBinance     bool     `mapstructure:"use_binance"`
}

type TradingConfig struct {
	InitialBalance  float64 `mapstructure:"initial_balance"`
	FeeRate         float64 `mapstructure:"fee_rate"`
	MonitorInterval string  `mapstructure:"monitor_interval"`
	MinConfidence   float64 `mapstructure:"min_confidence"`
	MaxDrawdown     float64 `mapstructure:"max_drawdown"`
	AutoExecute     bool    `mapstructure:"auto_execute"`
}

type PolicyConfig struct {
	Path string `mapstructure:"path"`
}

type PromptConfig struct {
	Path string `mapstructure:"path"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type LearningConfig struct {
	UserID string `mapstructure:"user_id"`
}
