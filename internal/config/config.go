package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig 应用基础信息
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// HTTPConfig 诊断 HTTP 服务配置
type HTTPConfig struct {
	Enable       bool          `mapstructure:"enable"`
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
}

// LumberjackConfig 日志滚动（lumberjack）配置
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig 日志级别与输出配置
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig Prometheus 指标暴露配置
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

// LocatorConfig 蓝牙设备定位配置（BlueZ）
type LocatorConfig struct {
	Adapter           string        `mapstructure:"adapter"`
	NameHints         []string      `mapstructure:"nameHints"`
	Address           string        `mapstructure:"address"`
	Discover          bool          `mapstructure:"discover"`
	DiscoveryTimeout  time.Duration `mapstructure:"discoveryTimeout"`
	DisconnectOnClose bool          `mapstructure:"disconnectOnClose"`
}

// SerialConfig 串行通道配置
// Mode: rfcomm 直接建立 RFCOMM socket；tty 打开已绑定的串口设备（如 /dev/rfcomm0）
type SerialConfig struct {
	Mode    string `mapstructure:"mode"`
	Channel uint8  `mapstructure:"channel"`
	Device  string `mapstructure:"device"`
	Baud    int    `mapstructure:"baud"`
}

// SessionConfig 协议会话参数
type SessionConfig struct {
	SoftwareVersion string        `mapstructure:"softwareVersion"`
	Use24HourClock  bool          `mapstructure:"use24HourClock"`
	LocalTime       bool          `mapstructure:"localTime"`
	SettleDelay     time.Duration `mapstructure:"settleDelay"`
	MaxPayload      uint32        `mapstructure:"maxPayload"`
	VibrateDelay    time.Duration `mapstructure:"vibrateDelay"`
	VibrateDuration time.Duration `mapstructure:"vibrateDuration"`
	IndicatorDelay  time.Duration `mapstructure:"indicatorDelay"`
	IndicatorOn     time.Duration `mapstructure:"indicatorOn"`
	IndicatorColor  ColorConfig   `mapstructure:"indicatorColor"`
}

// ColorConfig 指示灯颜色（RGB565 各通道原始值）
type ColorConfig struct {
	Red   uint8 `mapstructure:"red"`
	Green uint8 `mapstructure:"green"`
	Blue  uint8 `mapstructure:"blue"`
}

// ProtocolConfig 协议标识表
// IDTablePath 为空时使用内置默认映射
type ProtocolConfig struct {
	IDTablePath string `mapstructure:"idTablePath"`
}

// RedisConfig Redis 事件发布配置
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	Channel      string        `mapstructure:"channel"`
	DialTimeout  time.Duration `mapstructure:"dialTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
}

// EventsConfig 设备事件分发配置
type EventsConfig struct {
	BufferSize int `mapstructure:"bufferSize"`
}

// Config 顶层配置结构
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Locator  LocatorConfig  `mapstructure:"locator"`
	Serial   SerialConfig   `mapstructure:"serial"`
	Session  SessionConfig  `mapstructure:"session"`
	Protocol ProtocolConfig `mapstructure:"protocol"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Events   EventsConfig   `mapstructure:"events"`
}

// Load 从 YAML/TOML/JSON 文件与环境变量加载配置。
// 若 path 为空，则尝试从环境变量 LVB_CONFIG 读取；否则回退到 configs/example.yaml。
func Load(path string) (*Config, error) {
	v := viper.New()

	// 环境变量覆盖：前缀 LVB_，并将点号替换为下划线
	v.SetEnvPrefix("LVB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = v.GetString("CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("example")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 首次运行允许缺少配置文件，依赖默认值与环境变量
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验取值范围
func (c *Config) Validate() error {
	switch c.Serial.Mode {
	case "rfcomm", "tty":
	default:
		return fmt.Errorf("serial.mode: unsupported %q (want rfcomm|tty)", c.Serial.Mode)
	}
	if c.Serial.Mode == "tty" && c.Serial.Device == "" {
		return errors.New("serial.device: required in tty mode")
	}
	if c.Session.SettleDelay <= 0 {
		return errors.New("session.settleDelay: must be positive")
	}
	if len(c.Locator.NameHints) == 0 && c.Locator.Address == "" {
		return errors.New("locator: nameHints or address required")
	}
	for name, d := range map[string]time.Duration{
		"session.vibrateDelay":    c.Session.VibrateDelay,
		"session.vibrateDuration": c.Session.VibrateDuration,
		"session.indicatorDelay":  c.Session.IndicatorDelay,
		"session.indicatorOn":     c.Session.IndicatorOn,
	} {
		if d < 0 || d.Milliseconds() > 0xFFFF {
			return fmt.Errorf("%s: %v out of range (0..65535ms)", name, d)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "liveview-bridge")
	v.SetDefault("app.env", "dev")

	v.SetDefault("http.enable", false)
	v.SetDefault("http.addr", "127.0.0.1:8090")
	v.SetDefault("http.readTimeout", "5s")
	v.SetDefault("http.writeTimeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "logs/liveview-bridge.log")
	v.SetDefault("logging.file.maxSize", 20)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 7)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("locator.adapter", "/org/bluez/hci0")
	v.SetDefault("locator.nameHints", []string{"LiveView", "Jerry"})
	v.SetDefault("locator.address", "")
	v.SetDefault("locator.discover", false)
	v.SetDefault("locator.discoveryTimeout", "15s")
	v.SetDefault("locator.disconnectOnClose", true)

	v.SetDefault("serial.mode", "rfcomm")
	v.SetDefault("serial.channel", 1)
	v.SetDefault("serial.device", "/dev/rfcomm0")
	v.SetDefault("serial.baud", 4800)

	v.SetDefault("session.softwareVersion", "0.0.3")
	v.SetDefault("session.use24HourClock", false)
	v.SetDefault("session.localTime", false)
	v.SetDefault("session.settleDelay", "100ms")
	v.SetDefault("session.maxPayload", 1<<20)
	v.SetDefault("session.vibrateDelay", "100ms")
	v.SetDefault("session.vibrateDuration", "50ms")
	v.SetDefault("session.indicatorDelay", "100ms")
	v.SetDefault("session.indicatorOn", "250ms")
	v.SetDefault("session.indicatorColor.red", 31)
	v.SetDefault("session.indicatorColor.green", 63)
	v.SetDefault("session.indicatorColor.blue", 31)

	v.SetDefault("protocol.idTablePath", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "liveview:events")
	v.SetDefault("redis.dialTimeout", "3s")
	v.SetDefault("redis.writeTimeout", "1s")

	v.SetDefault("events.bufferSize", 256)
}
