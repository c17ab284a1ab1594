package migrations_test

import (
	"testing"

	"github.com/serroba/shortlinks/internal/migrations"
	"github.com/stretchr/testify/assert"
)

func TestDriverURL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@localhost:5432/db?sslmode=disable": "pgx5://u:p@localhost:5432/db?sslmode=disable",
		"postgresql://u:p@localhost:5432/db":               "pgx5://u:p@localhost:5432/db",
		"pgx5://u:p@localhost:5432/db":                     "pgx5://u:p@localhost:5432/db",
	}

	for in, want := range tests {
		assert.Equal(t, want, migrations.DriverURL(in), in)
	}
}
