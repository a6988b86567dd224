package config

import "fmt"

type Config struct {
	Environment  Environment
	Log          Log
	HTTP         HTTPServer
	DatabasePath string `env:"DATABASE_PATH" envDefault:"shopify.db"`

	Shopify Shopify `envPrefix:"SHOPIFY_"`
}

type Shopify struct {
	Store      string `env:"STORE"`
	APIKey     string `env:"API_KEY"`
	Password   string `env:"PASSWORD"`
	APIVersion string `env:"API_VERSION" envDefault:"2021-04"`
	PageLimit  int    `env:"PAGE_LIMIT" envDefault:"250"`
}

// BaseURL is the versioned admin API root for the configured store.
func (s Shopify) BaseURL() string {
	return fmt.Sprintf("https://%s.myshopify.com/admin/api/%s", s.Store, s.APIVersion)
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"console"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
