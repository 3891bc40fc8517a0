package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server        ServerConfig   `yaml:"server"`
	Storage       StorageConfig  `yaml:"storage"`
	Mail          MailConfig     `yaml:"mail"`
	AI            AIConfig       `yaml:"ai"`
	Redis         RedisConfig    `yaml:"redis"`
	EditorBaseURL string         `yaml:"editor_base_url"`
	Development   bool           `yaml:"development"`
	Organisations []Organisation `yaml:"organisations"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection.
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// StorageConfig holds DynamoDB and S3 configuration.
type StorageConfig struct {
	TablePrefix  string `yaml:"table_prefix"`
	PhotosBucket string `yaml:"photos_bucket"`
	PublicBucket string `yaml:"public_bucket"`
	AWSRegion    string `yaml:"aws_region"`
	AWSProfile   string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
}

// GetAWSProfile returns the AWS profile, with environment variable override.
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// MailConfig holds AWS SES configuration for outbound email.
type MailConfig struct {
	Region         string `yaml:"region"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration.
func (c MailConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AIConfig holds AWS Bedrock configuration for the writing assistant.
type AIConfig struct {
	ModelID string `yaml:"model_id"`
	Region  string `yaml:"region"`
	Enabled bool   `yaml:"enabled"`
}

// RedisConfig holds Redis configuration for the reminder scheduler lock.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Organisation describes one tenant of the platform. The slice in Config is
// loaded once at startup and frozen into an Organisations snapshot; nothing
// mutates it at runtime.
type Organisation struct {
	Name                  string     `yaml:"name"`
	Domain                string     `yaml:"domain"`
	NewsletterURL         string     `yaml:"newsletter_url"`
	Address               string     `yaml:"address"`
	Footer                string     `yaml:"footer"`
	FromEmail             string     `yaml:"from_email"`
	QualityAssuranceEmail string     `yaml:"quality_assurance_email"`
	SocialMediaEmail      string     `yaml:"social_media_email"`
	ReminderReplyTo       string     `yaml:"reminder_reply_to"`
	TwitterHandle         string     `yaml:"twitter_handle"`
	Timezone              string     `yaml:"timezone"`
	PhotoConsentURL       string     `yaml:"photo_consent_url"`
	UnlistedArticles      []string   `yaml:"unlisted_articles"`
	DeadlineDaysBefore    int        `yaml:"deadline_days_before_publish"`
	Reminders             []Reminder `yaml:"reminders"`
}

// Location resolves the organisation's timezone, defaulting to Europe/London.
func (o *Organisation) Location() *time.Location {
	tz := o.Timezone
	if tz == "" {
		tz = "Europe/London"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Reminder configures a contributor chase-up email sent a number of days
// before an issue's deadline, at a local wall-clock time ("09:00").
type Reminder struct {
	DaysBeforeDeadline int    `yaml:"days_before_deadline"`
	Time               string `yaml:"time"`
	Subject            string `yaml:"subject"`
	Message            string `yaml:"message"`
}

// Organisations is an immutable tenant catalog built once at startup and
// passed by reference into every operation.
type Organisations struct {
	byDomain map[string]*Organisation
}

// NewOrganisations builds the tenant catalog from configuration.
func NewOrganisations(orgs []Organisation) (*Organisations, error) {
	m := make(map[string]*Organisation, len(orgs))
	for i := range orgs {
		o := orgs[i]
		if o.Domain == "" {
			return nil, fmt.Errorf("organisation %q has no domain", o.Name)
		}
		if _, dup := m[o.Domain]; dup {
			return nil, fmt.Errorf("duplicate organisation domain %q", o.Domain)
		}
		m[o.Domain] = &o
	}
	return &Organisations{byDomain: m}, nil
}

// ByDomain returns the organisation for a tenant domain, or nil if the
// domain is not provisioned.
func (s *Organisations) ByDomain(domain string) *Organisation {
	return s.byDomain[domain]
}

// Domains returns all provisioned tenant domains.
func (s *Organisations) Domains() []string {
	out := make([]string, 0, len(s.byDomain))
	for d := range s.byDomain {
		out = append(out, d)
	}
	return out
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Storage.TablePrefix == "" {
		cfg.Storage.TablePrefix = "newsletter"
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "eu-west-2"
	}
	if cfg.Mail.Region == "" {
		cfg.Mail.Region = cfg.Storage.AWSRegion
	}
	if cfg.Mail.TimeoutSeconds == 0 {
		cfg.Mail.TimeoutSeconds = 30
	}
	if cfg.AI.Region == "" {
		cfg.AI.Region = cfg.Storage.AWSRegion
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PHOTOS_BUCKET"); v != "" {
		cfg.Storage.PhotosBucket = v
	}
	if v := os.Getenv("PUBLIC_BUCKET"); v != "" {
		cfg.Storage.PublicBucket = v
	}
	if v := os.Getenv("TABLE_PREFIX"); v != "" {
		cfg.Storage.TablePrefix = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.Mail.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.Mail.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.Mail.Region = v
	}
	if v := os.Getenv("BEDROCK_MODEL_ID"); v != "" {
		cfg.AI.ModelID = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("EDITOR_BASE_URL"); v != "" {
		cfg.EditorBaseURL = v
	}

	return cfg, nil
}
