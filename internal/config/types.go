package config

import (
	"strings"
	"time"
)

// Config is the root configuration structure for cgconsole.
// Serialised to ~/.cgconsole/config.json.
type Config struct {
	Backend   BackendConfig    `mapstructure:"backend"   json:"backend"`
	Detection DetectionConfig  `mapstructure:"detection" json:"detection"`
	Database  DatabaseConfig   `mapstructure:"database"  json:"database"`
	Git       GitConfig        `mapstructure:"git"       json:"git"`
	Notify    NotifyConfig     `mapstructure:"notify"    json:"notify"`
	Schedules []ScheduleConfig `mapstructure:"schedules" json:"schedules"`
}

// BackendConfig points the console at the detection REST API.
type BackendConfig struct {
	// URL is the backend origin, e.g. http://0.0.0.0:8000.
	URL string `mapstructure:"url"        json:"url"`
	// APIPrefix is the versioned path prefix appended to URL.
	APIPrefix string `mapstructure:"api_prefix" json:"api_prefix"`
	// Timeout is the per-request timeout in seconds.
	Timeout int `mapstructure:"timeout"    json:"timeout"`
}

// BaseURL joins the origin and the API prefix.
func (b BackendConfig) BaseURL() string {
	return strings.TrimRight(b.URL, "/") + "/" + strings.Trim(b.APIPrefix, "/")
}

// RequestTimeout returns Timeout as a duration.
func (b BackendConfig) RequestTimeout() time.Duration {
	if b.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(b.Timeout) * time.Second
}

// DetectionConfig controls the preparation and monitoring workflow.
type DetectionConfig struct {
	// PollInterval is the status poll period in seconds.
	PollInterval int `mapstructure:"poll_interval"  json:"poll_interval"`
	// StrictMethods rejects unknown detection methods before submission.
	StrictMethods bool `mapstructure:"strict_methods" json:"strict_methods"`
	// DefaultMethod pre-fills the method field of the Prepare view.
	DefaultMethod string `mapstructure:"default_method" json:"default_method"`
}

// Interval returns PollInterval as a duration.
func (d DetectionConfig) Interval() time.Duration {
	if d.PollInterval <= 0 {
		return 5 * time.Second
	}
	return time.Duration(d.PollInterval) * time.Second
}

// DatabaseConfig controls the local submission journal.
type DatabaseConfig struct {
	// Driver is "sqlite" (default) or "mysql".
	Driver string `mapstructure:"driver" json:"driver"`
	// Path is the SQLite file path (expanded at runtime).
	Path string `mapstructure:"path"   json:"path"`
	// DSN is the MySQL data source name (used when Driver == "mysql").
	DSN string `mapstructure:"dsn"    json:"dsn"`
}

// GitConfig holds credentials used to look up project metadata on registration.
type GitConfig struct {
	GitHub []GitHubConfig `mapstructure:"github" json:"github"`
	GitLab []GitLabConfig `mapstructure:"gitlab" json:"gitlab"`
}

// GitHubConfig holds credentials for a single GitHub instance.
type GitHubConfig struct {
	Token string `mapstructure:"token" json:"token"`
	// Host allows enterprise GitHub (e.g. github.mycompany.com).
	Host string `mapstructure:"host"  json:"host"`
}

// GitLabConfig holds credentials for a single GitLab instance.
type GitLabConfig struct {
	Token string `mapstructure:"token" json:"token"`
	Host  string `mapstructure:"host"  json:"host"`
}

// NotifyConfig controls where `cgconsole watch` reports new vulnerable clones.
type NotifyConfig struct {
	// MinConfidence drops rows below this confidence. 0 keeps everything.
	MinConfidence float64              `mapstructure:"min_confidence" json:"min_confidence"`
	Slack         SlackNotifyConfig    `mapstructure:"slack"          json:"slack"`
	Webhook       WebhookNotifyConfig  `mapstructure:"webhook"        json:"webhook"`
	Email         EmailNotifyConfig    `mapstructure:"email"          json:"email"`
	Telegram      TelegramNotifyConfig `mapstructure:"telegram"       json:"telegram"`
}

type SlackNotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url" json:"webhook_url"`
}

type WebhookNotifyConfig struct {
	URL string `mapstructure:"url"    json:"url"`
	// Secret signs the payload with HMAC-SHA256 when set.
	Secret string `mapstructure:"secret" json:"secret"`
}

type EmailNotifyConfig struct {
	SMTPHost string `mapstructure:"smtp_host" json:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port" json:"smtp_port"`
	Username string `mapstructure:"username"  json:"username"`
	Password string `mapstructure:"password"  json:"password"`
	From     string `mapstructure:"from"      json:"from"`
	To       string `mapstructure:"to"        json:"to"`
	UseTLS   bool   `mapstructure:"use_tls"   json:"use_tls"`
}

type TelegramNotifyConfig struct {
	BotToken string `mapstructure:"bot_token" json:"bot_token"`
	ChatID   string `mapstructure:"chat_id"   json:"chat_id"`
}

// ScheduleConfig is a detection run submitted on a cron expression by
// `cgconsole schedule run`.
type ScheduleConfig struct {
	Name    string `mapstructure:"name"     json:"name"`
	Expr    string `mapstructure:"expr"     json:"expr"`
	BugID   string `mapstructure:"bug_id"   json:"bug_id"`
	Project string `mapstructure:"project"  json:"project"`
	// Commit is optional; when empty the first search candidate is used.
	Commit string `mapstructure:"commit"   json:"commit"`
	Method string `mapstructure:"method"   json:"method"`
	Date   string `mapstructure:"date"     json:"date"`
	// PatchFile overrides the patch returned by the search.
	PatchFile string `mapstructure:"patch_file" json:"patch_file"`
	Enabled   bool   `mapstructure:"enabled"    json:"enabled"`
}
