package models

import "time"

// Settings represents the process configuration assembled from the environment
type Settings struct {
	Port            string
	RedisURL        string
	RequestTimeout  time.Duration
	NotifyTimeout   time.Duration
	TrialDomain     string
	MailgunDomain   string
	MailgunAPIKey   string
	MailgunAPIBase  string
	MailFrom        string
	QueueURL        string
	NotifyQueue     string
	MySQLDSN        string
	OperatorEmail   string
	DigestSchedule  string
	LogDestinations string
}

// UseQueue reports whether notifications go through the task queue
func (s *Settings) UseQueue() bool {
	return s.QueueURL != ""
}

// UseMailgun reports whether mailgun credentials are configured
func (s *Settings) UseMailgun() bool {
	return s.MailgunAPIKey != "" && s.MailgunDomain != ""
}
