package profile

import (
	"strings"
	"testing"
)

func TestValidateDriver(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr string
	}{
		{
			name:    "unsupported driver",
			profile: Profile{Driver: "mysql"},
			wantErr: "unsupported database driver",
		},
		{
			name:    "postgres requires dsn",
			profile: Profile{Driver: "postgres"},
			wantErr: "requires a dsn",
		},
		{
			name:    "postgres with dsn",
			profile: Profile{Mode: "dev", Driver: "postgres", DSN: "postgres://localhost/mesero"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	p := Profile{Mode: "dev", Driver: "sqlite", Data: t.TempDir()}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if !strings.HasSuffix(p.DSN, "mesero_dev.db") {
		t.Errorf("DSN = %q, want mesero_dev.db suffix", p.DSN)
	}
	if p.HistoryWindow != 10 || p.MaxToolRounds != 6 {
		t.Errorf("defaults not applied: window=%d rounds=%d", p.HistoryWindow, p.MaxToolRounds)
	}
}

func TestValidateNormalizesMode(t *testing.T) {
	p := Profile{Mode: "weird", Driver: "sqlite", Data: t.TempDir()}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if p.Mode != "demo" {
		t.Errorf("Mode = %q, want demo", p.Mode)
	}
}
