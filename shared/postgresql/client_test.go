package postgresql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigDSN(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{
			name: "explicit ssl mode",
			config: Config{
				Host:     "db.local",
				Port:     5433,
				User:     "gamer",
				Password: "secret",
				Database: "runs",
				SSLMode:  "require",
			},
			want: "host=db.local port=5433 user=gamer password=secret dbname=runs sslmode=require",
		},
		{
			name: "ssl mode defaults to disable",
			config: Config{
				Host:     "localhost",
				Port:     5432,
				User:     "postgres",
				Database: "gamer",
			},
			want: "host=localhost port=5432 user=postgres password='' dbname=gamer sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config.DSN())
		})
	}
}

func TestQuoteValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "", want: "''"},
		{in: "with space", want: "'with space'"},
		{in: "it's", want: `'it\'s'`},
		{in: `back\slash`, want: `'back\\slash'`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, quoteValue(tt.in), tt.in)
	}
}
