package dsn

import (
	"testing"

	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/config"
)

func TestCreate(t *testing.T) {
	base := config.DB{
		Host:     "db.example.org",
		Port:     5432,
		User:     "portal",
		Password: "pw",
		Name:     "portal",
		Extras:   "sslmode=disable",
	}

	tests := []struct {
		name   string
		engine string
		want   string
	}{
		{"postgres", "postgres", "host=db.example.org user=portal password=pw dbname=portal port=5432 sslmode=disable"},
		{"mysql", "mysql", "portal:pw@tcp(db.example.org:5432)/portal?sslmode=disable"},
		{"sqlite uses file name", "sqlite", "portal"},
		{"empty engine defaults to sqlite", "", "portal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Config{DB: base}
			cfg.DB.GormEngine = tt.engine

			if got := Create(&cfg); got != tt.want {
				t.Errorf("Create() = %q, want %q", got, tt.want)
			}
		})
	}
}
