package domain

import "strings"

type Encryption string

const (
	EncryptionSSL  Encryption = "ssl"
	EncryptionTLS  Encryption = "tls"
	EncryptionNone Encryption = "none"
)

type SmtpSettings struct {
	Host       string     `json:"host"`
	Port       int        `json:"port"`
	Username   string     `json:"username"`
	Password   string     `json:"password"`
	Encryption Encryption `json:"encryption"`
}

func (s *SmtpSettings) Validate() error {
	if strings.TrimSpace(s.Host) == "" {
		return ErrInvalidSMTPHost
	}
	if s.Port < 1 || s.Port > 65535 {
		return ErrInvalidSMTPPort
	}
	if strings.TrimSpace(s.Username) == "" {
		return ErrInvalidSMTPUsername
	}
	switch s.Encryption {
	case EncryptionSSL, EncryptionTLS, EncryptionNone:
	default:
		return ErrInvalidSMTPEncryption
	}
	return nil
}
