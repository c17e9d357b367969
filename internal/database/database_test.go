package database

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"yatube/internal/config"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"m/000001_widgets.up.sql":   {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)")},
		"m/000001_widgets.down.sql": {Data: []byte("DROP TABLE widgets")},
		"m/000002_gadgets.up.sql":   {Data: []byte("CREATE TABLE gadgets (id INTEGER PRIMARY KEY)")},
		"m/000002_gadgets.down.sql": {Data: []byte("DROP TABLE gadgets")},
		"m/README.md":               {Data: []byte("ignored")},
	}
}

func TestLoadMigrations(t *testing.T) {
	list, err := LoadMigrations(testMigrations(), "m")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].Version)
	assert.Equal(t, "widgets", list[0].Name)
	assert.Equal(t, "000002_gadgets", list[1].String())
}

func TestLoadMigrations_Invalid(t *testing.T) {
	tests := []struct {
		name string
		fs   fstest.MapFS
	}{
		{"missing down", fstest.MapFS{"m/000001_a.up.sql": {Data: []byte("SELECT 1")}}},
		{"bad version", fstest.MapFS{
			"m/abc_a.up.sql":   {Data: []byte("SELECT 1")},
			"m/abc_a.down.sql": {Data: []byte("SELECT 1")},
		}},
		{"no name", fstest.MapFS{
			"m/000001.up.sql":   {Data: []byte("SELECT 1")},
			"m/000001.down.sql": {Data: []byte("SELECT 1")},
		}},
		{"duplicate version", fstest.MapFS{
			"m/000001_a.up.sql":   {Data: []byte("SELECT 1")},
			"m/000001_a.down.sql": {Data: []byte("SELECT 1")},
			"m/000001_b.up.sql":   {Data: []byte("SELECT 1")},
			"m/000001_b.down.sql": {Data: []byte("SELECT 1")},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMigrations(tt.fs, "m")
			assert.Error(t, err)
		})
	}
}

func TestGetMigrations_Embedded(t *testing.T) {
	list, err := GetMigrations()
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, m := range list {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.UpScript)
		assert.NotEmpty(t, m.DownScript)
	}
}

func TestApplyMigrations_IdempotentAndRollback(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	list, err := LoadMigrations(testMigrations(), "m")
	require.NoError(t, err)

	require.NoError(t, applyMigrations(ctx, db, list))
	require.NoError(t, applyMigrations(ctx, db, list))

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, applied)
	assert.True(t, db.Migrator().HasTable("gadgets"))

	require.NoError(t, rollback(ctx, db, list, 2))
	assert.False(t, db.Migrator().HasTable("gadgets"))
	assert.True(t, db.Migrator().HasTable("widgets"))

	err = rollback(ctx, db, list, 2)
	assert.ErrorContains(t, err, "has not been applied")
}

func TestApplyMigrations_FailedScriptIsNotRecorded(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	list := []Migration{{Version: 1, Name: "broken", UpScript: "CREATE TABLE (", DownScript: ""}}

	require.Error(t, applyMigrations(ctx, db, list))

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestValidateAppliedVersions(t *testing.T) {
	known := []Migration{{Version: 1}, {Version: 2}}
	assert.NoError(t, validateAppliedVersions(nil, known))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, known))
	assert.ErrorContains(t, validateAppliedVersions([]int{1, 7, 5}, known), "000005, 000007")
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		env      string
		dialect  string
		wantSQL  bool
		wantAuto bool
		wantErr  bool
	}{
		{"hybrid dev postgres", "hybrid", "development", "postgres", true, true, false},
		{"hybrid prod postgres", "hybrid", "production", "postgres", true, false, false},
		{"sql postgres", "sql", "development", "postgres", true, false, false},
		{"auto dev postgres", "auto", "development", "postgres", false, true, false},
		{"auto prod postgres", "auto", "production", "postgres", false, false, true},
		{"sqlite always auto", "sql", "production", "sqlite", false, true, false},
		{"mysql always auto", "hybrid", "development", "mysql", false, true, false},
		{"unknown mode", "magic", "development", "postgres", false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&config.Config{DBSchemaMode: tt.mode, Env: tt.env}, tt.dialect)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestApplySchema_SQLiteCreatesTables(t *testing.T) {
	db := openSQLite(t)
	cfg := &config.Config{DBSchemaMode: "hybrid", Env: "test"}

	require.NoError(t, ApplySchema(context.Background(), db, cfg))
	for _, table := range []string{"users", "groups", "posts", "follows"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	status, err := GetSchemaStatus(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Driver)
	assert.False(t, status.WillRunSQL)
	assert.True(t, status.WillRunAutoMigrate)
}

func TestConfigurePool_SQLiteSingleWriter(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, configurePool(db, &config.Config{DBMaxOpenConns: 10, DBMaxIdleConns: 5}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestDialector(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql", "sqlite"} {
		d, err := Dialector(&config.Config{DBDriver: driver, DBPath: "x.db"})
		require.NoError(t, err, driver)
		assert.Equal(t, driver, d.Name())
	}
	_, err := Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(&config.Config{DBHost: "db", DBPort: "5432", DBUser: "yatube", DBPassword: "pw", DBName: "yatube"})
	assert.Equal(t, "host=db port=5432 user=yatube password=pw dbname=yatube sslmode=disable", dsn)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: follows.user_id, follows.author_id")))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsMissingTable(t *testing.T) {
	assert.True(t, IsMissingTable(&pgconn.PgError{Code: "42P01"}))
	assert.True(t, IsMissingTable(errors.New("no such table: migration_logs")))
	assert.False(t, IsMissingTable(errors.New("syntax error")))
}
