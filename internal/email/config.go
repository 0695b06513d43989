package email

import "fmt"

type Config struct {
	SMTPHost  string
	SMTPPort  int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	BaseURL   string
}

func DefaultConfig() Config {
	return Config{
		SMTPHost:  "localhost",
		SMTPPort:  587,
		FromEmail: "noreply@jobbridge.io",
		FromName:  "JobBridge",
		BaseURL:   "https://jobbridge.io",
	}
}

func (c Config) Validate() error {
	if c.SMTPHost == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("invalid SMTP port: %d", c.SMTPPort)
	}
	if c.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}
