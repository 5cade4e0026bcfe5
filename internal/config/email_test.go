package config

import "testing"

func TestEffectiveTLSMode(t *testing.T) {
	tests := []struct {
		name    string
		tlsMode string
		tlsFlag bool
		want    string
	}{
		{"explicit starttls", "starttls", false, TLSModeStartTLS},
		{"tls alias", "tls", false, TLSModeStartTLS},
		{"smtps", "smtps", false, TLSModeSMTPS},
		{"implicit alias", "implicit", false, TLSModeSMTPS},
		{"none", "none", true, TLSModeNone},
		{"off alias", "off", true, TLSModeNone},
		{"empty with flag", "", true, TLSModeStartTLS},
		{"empty without flag", "", false, TLSModeNone},
		{"unknown falls back to flag", "garbage", true, TLSModeStartTLS},
		{"mixed case", " SMTPS ", false, TLSModeSMTPS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &EmailConfig{SMTP: SMTPConfig{TLSMode: tt.tlsMode, TLS: tt.tlsFlag}}
			if got := cfg.EffectiveTLSMode(); got != tt.want {
				t.Errorf("EffectiveTLSMode() = %q, want %q", got, tt.want)
			}
		})
	}

	var nilCfg *EmailConfig
	if got := nilCfg.EffectiveTLSMode(); got != TLSModeNone {
		t.Errorf("nil config = %q, want %q", got, TLSModeNone)
	}
}
