package config

import "strings"

// TLS modes for outbound SMTP.
const (
	TLSModeNone     = "none"
	TLSModeStartTLS = "starttls"
	TLSModeSMTPS    = "smtps"
)

// EffectiveTLSMode resolves the configured tls_mode to one of the TLSMode
// constants. An empty or unrecognized value falls back to the boolean tls
// flag, which means STARTTLS when set.
func (c *EmailConfig) EffectiveTLSMode() string {
	if c == nil {
		return TLSModeNone
	}
	switch strings.ToLower(strings.TrimSpace(c.SMTP.TLSMode)) {
	case TLSModeStartTLS, "tls":
		return TLSModeStartTLS
	case TLSModeSMTPS, "implicit":
		return TLSModeSMTPS
	case TLSModeNone, "off", "disabled":
		return TLSModeNone
	}
	if c.SMTP.TLS {
		return TLSModeStartTLS
	}
	return TLSModeNone
}
