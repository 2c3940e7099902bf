package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    *Config
		wantErr bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "memory", "-i", "10", "-s", "0", "-f", "/tmp/t.db", "-l", "out.log", "-v", "warn"},
			want: &Config{ServerEndpointAddr: "memory", OnlineCheckInterval: 10 * time.Second, DatabasePath: "/tmp/t.db", LogFile: "out.log", LogLevel: "warn"},
		},
		{
			name: "no flags keeps values",
			args: []string{"positional"},
			want: &Config{ServerEndpointAddr: "x", OnlineCheckInterval: 1500 * time.Millisecond, SyncInterval: time.Minute},
		},
		{name: "incorrect check interval", args: []string{"-i", "abc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{ServerEndpointAddr: "x", OnlineCheckInterval: 1500 * time.Millisecond, SyncInterval: time.Minute}
			err := parseFlags(cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, cfg); diff != "" {
				t.Fatalf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
