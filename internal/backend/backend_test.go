package backend

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"bilancio/internal/config"
	"bilancio/internal/log"
)

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		want    BackendType
		wantErr bool
	}{
		{"nil config", nil, "", true},
		{"sqlite", &config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db"}, SQLiteBackend, false},
		{"postgres", &config.Config{DataBackend: "postgres", DatabaseURL: "postgres://localhost/db", DBMaxOpenConns: 7}, PostgresBackend, false},
		{"memory is gone", &config.Config{DataBackend: "memory"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAppConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromAppConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got.Type != tt.want {
				t.Errorf("Type = %v, want %v", got.Type, tt.want)
			}
			if tt.want == PostgresBackend && got.Pool.MaxOpenConns != 7 {
				t.Errorf("pool options not mapped: %+v", got.Pool)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{Type: PostgresBackend}).Validate(); err == nil {
		t.Error("postgres without URL should fail")
	}
	if err := (Config{Type: SQLiteBackend}).Validate(); err == nil {
		t.Error("sqlite without path should fail")
	}
	if err := (Config{Type: "mongo"}).Validate(); err == nil {
		t.Error("unknown type should fail")
	}
	if got := GetBackendTypeStrings(); len(got) != 2 || got[0] != "sqlite" || got[1] != "postgres" {
		t.Errorf("GetBackendTypeStrings() = %v", got)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	f := NewFactory(log.New(log.Config{Output: io.Discard}))
	res, err := f.CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "nested", "bilancio.db"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Events != nil || res.Publisher() != nil {
		t.Error("events should be disabled without AMQP_URL")
	}
	if err := res.Store.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}
