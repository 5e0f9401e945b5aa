package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	Log struct {
		Level string
	} `mapstructure:"log"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Catalogue struct {
		PageSize       int           `mapstructure:"page_size"`
		ReloadDebounce time.Duration `mapstructure:"reload_debounce"`
	} `mapstructure:"catalogue"`

	Export struct {
		Dir            string
		RequesterName  string `mapstructure:"requester_name"`
		RequesterTitle string `mapstructure:"requester_title"`
		SheetColumns   string `mapstructure:"sheet_columns"`
	} `mapstructure:"export"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`

	AMQP struct {
		URL string
	} `mapstructure:"amqp"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "Asia/Kuala_Lumpur")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("catalogue.page_size", 10)
	v.SetDefault("catalogue.reload_debounce", 300*time.Millisecond)
	v.SetDefault("export.dir", ".")
	v.SetDefault("export.sheet_columns", "detailed")
}

// Load reads the YAML file at path. A missing file is fine as long as the
// environment carries what is needed; APP_POSTGRES_DSN etc. override keys.
func Load(path string) (Config, error) {
	// .env is optional
	if _, err := os.Stat(".env"); err == nil {
		_ = gotenv.Load(".env")
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return c, err
			}
		}
	}
	// AutomaticEnv only resolves keys viper already knows about
	for _, key := range []string{"postgres.dsn", "telegram.token", "telegram.admin_chat_id", "amqp.url", "log.level", "export.requester_name", "export.requester_title"} {
		_ = v.BindEnv(key)
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}

// Location resolves app.timezone, falling back to UTC for an unknown zone.
// "Local" is refused too: Postgres only understands IANA names.
func (c Config) Location() *time.Location {
	if strings.EqualFold(strings.TrimSpace(c.App.Timezone), "local") {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
