package config

import "time"

var defaults = map[string]any{
	"log.level": "info",
	"log.json":  false,

	"http.host":             "0.0.0.0",
	"http.port":             8080,
	"http.read_timeout":     10 * time.Second,
	"http.write_timeout":    2 * time.Minute,
	"http.idle_timeout":     60 * time.Second,
	"http.shutdown_timeout": 10 * time.Second,
	"http.max_body_bytes":   64 << 10,

	"advice.provider": "openai",
	"advice.api_key":  "",
	"advice.base_url": "https://api.openai.com/v1",
	"advice.timeout":  90 * time.Second,

	"telegram.token":            "",
	"telegram.messages.welcome": "👋 Welcome! Send /advice with your numbers to get an educational financial checkup.",
	"telegram.messages.help": "Usage: /advice age=35 retire=65 income=120000 cash=30000 investments=50000 retirement=80000 kids=\"8, 12\"\n" +
		"Every field is optional. Guidance is educational only and is not individualized financial, legal, or tax advice.",
	"telegram.messages.working": "🤖 Reviewing your finances...",
}
