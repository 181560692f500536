package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment variable the application reads.
const EnvPrefix = "QUIZSTREAK_"

// ApplyEnv overlays QUIZSTREAK_* variables onto c. Unset variables leave
// the current value alone; malformed values are reported together.
func (c *Config) ApplyEnv() error {
	var errs []error
	str := func(dst *string, key string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	i64 := func(dst *int64, key string) {
		if v, ok := lookup(key); ok {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s%s: %q", EnvPrefix, key, v))
				return
			}
			*dst = n
		}
	}
	num := func(dst *int, key string) {
		n := int64(*dst)
		i64(&n, key)
		*dst = int(n)
	}
	boolean := func(dst *bool, key string) {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s%s: %q", EnvPrefix, key, v))
				return
			}
			*dst = b
		}
	}
	dur := func(dst *time.Duration, key string) {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s%s: %q", EnvPrefix, key, v))
				return
			}
			*dst = d
		}
	}

	str(&c.Telegram.Token, "TELEGRAM_TOKEN")
	i64(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	str(&c.Telegram.Mode, "TELEGRAM_MODE")
	str(&c.Telegram.WebhookSecret, "WEBHOOK_SECRET")
	str(&c.Telegram.PublicURL, "PUBLIC_URL")
	str(&c.Telegram.APIURL, "TELEGRAM_API_URL")

	str(&c.Server.Addr, "ADDR")
	str(&c.Server.CronSecret, "CRON_SECRET")

	str(&c.Source.Kind, "SOURCE")
	str(&c.Source.NotionToken, "NOTION_TOKEN")
	str(&c.Source.NotionDatabaseID, "NOTION_DATABASE_ID")
	str(&c.Source.Path, "SOURCE_PATH")
	str(&c.Source.Difficulty, "DIFFICULTY")
	num(&c.Source.Count, "QUESTION_COUNT")

	boolean(&c.Schedule.Enabled, "SCHEDULE_ENABLED")
	str(&c.Schedule.Time, "DAILY_TIME")
	str(&c.Schedule.Timezone, "TIMEZONE")

	dur(&c.Delivery.MessageDelay, "MESSAGE_DELAY")
	dur(&c.Delivery.SendTimeout, "SEND_TIMEOUT")

	str(&c.Archive.Path, "ARCHIVE")
	str(&c.DB.Path, "DB")

	c.LLM.ApplyEnv()

	return errors.Join(errs...)
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
