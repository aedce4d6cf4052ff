package db

import (
	"testing"

	"bookcourier/internal/config"
	"bookcourier/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectorSelection(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres", "sqlite"} {
		d, err := Dialector(&config.Config{DBDriver: driver, DBName: "x"})
		require.NoError(t, err, driver)
		assert.Equal(t, driver, d.Name())
	}
	_, err := Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBName: "file::memory:"}
	gdb, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))

	u := domain.User{Email: "u@example.com"}
	require.NoError(t, gdb.Create(&u).Error)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, domain.RoleUser, u.Role)

	var got domain.User
	require.NoError(t, gdb.First(&got, "email = ?", "u@example.com").Error)
	assert.Equal(t, domain.RoleUser, got.Role)
}
