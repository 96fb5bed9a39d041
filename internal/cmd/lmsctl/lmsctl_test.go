package lmsctl

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	platformgrpc "github.com/louisbranch/lms/internal/platform/grpc"
	"github.com/louisbranch/lms/internal/platform/logging"
	"github.com/louisbranch/lms/internal/platform/storage/sqldb"
	"github.com/louisbranch/lms/internal/services/lms/lmstest"
	"github.com/louisbranch/lms/internal/services/lms/model"
	"github.com/louisbranch/lms/internal/services/lms/storage/sqlstore"
)

const seedYAML = `
users:
  - email: ines@lms.test
    name: Ines
    password: correct-horse
    role: instructor
  - email: sam@lms.test
    name: Sam
    password: correct-horse
    role: student
courses:
  - title: Go Basics
    duration: 6 weeks
    description: Intro
    instructor: INES@lms.test
`

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		BcryptCost: bcrypt.MinCost,
		DB:         sqldb.Config{Driver: sqldb.DriverSQLite, DSN: filepath.Join(t.TempDir(), "lms.db")},
	}
}

func run(t *testing.T, cfg Config, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(cfg, Deps{Clock: lmstest.Clock(), Logger: logging.Test(t)})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func openTestStore(t *testing.T, cfg Config) *sqlstore.Store {
	t.Helper()
	store, err := sqlstore.Open(context.Background(), cfg.DB)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewCommand_Structure(t *testing.T) {
	t.Parallel()

	cmd := NewCommand(Config{}, Deps{})
	uses := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		uses = append(uses, sub.Name())
	}
	assert.ElementsMatch(t, []string{"migrate", "user", "seed", "health"}, uses)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("db-dsn"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("db-driver"))
}

func TestMigrate(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)

	out, err := run(t, cfg, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied (sqlite)")

	out, err = run(t, cfg, "migrate")
	require.NoError(t, err, "migrations are idempotent")
	assert.Contains(t, out, "migrations applied")
}

func TestMigrateUsesDSNFlag(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "flag.db")

	_, err := run(t, Config{DB: sqldb.Config{Driver: sqldb.DriverSQLite}}, "migrate", "--db-dsn", path)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestUserCreate(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)

	out, err := run(t, cfg, "user", "create",
		"--email", "Ines@LMS.test", "--name", "Ines", "--password", "correct-horse", "--role", "instructor")
	require.NoError(t, err)
	assert.Contains(t, out, "created INSTRUCTOR ines@lms.test")

	user, err := openTestStore(t, cfg).GetUserByEmail(context.Background(), "ines@lms.test")
	require.NoError(t, err)
	assert.Equal(t, model.RoleInstructor, user.Role)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")))

	_, err = run(t, cfg, "user", "create", "--email", "ines@lms.test", "--password", "correct-horse")
	require.Error(t, err)
}

func TestUserCreateRequiresFlags(t *testing.T) {
	t.Parallel()

	_, err := run(t, testConfig(t), "user", "create", "--name", "Nobody")
	require.ErrorContains(t, err, "is required")
}

func TestParseSeed(t *testing.T) {
	t.Parallel()

	file, err := ParseSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)
	require.Len(t, file.Users, 2)
	require.Len(t, file.Courses, 1)
	assert.Equal(t, "INES@lms.test", file.Courses[0].Instructor)

	_, err = ParseSeed(strings.NewReader("users:\n  - email: a@b.c\n    nickname: x\n"))
	require.Error(t, err, "unknown keys are rejected")

	empty, err := ParseSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Users)
}

func TestSeedIsRepeatable(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	out, err := run(t, cfg, "seed", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "users: 2 created, 0 skipped; courses: 1 created, 0 skipped")

	out, err = run(t, cfg, "seed", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "users: 0 created, 2 skipped; courses: 0 created, 1 skipped")

	store := openTestStore(t, cfg)
	courses, err := store.ListCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Go Basics", courses[0].Title)
	assert.Equal(t, "Ines", courses[0].InstructorName)
}

func TestSeedRejectsUnknownInstructor(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "seed.yaml")
	doc := "courses:\n  - title: Orphan\n    instructor: ghost@lms.test\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	_, err := run(t, cfg, "seed", "--file", path)
	require.ErrorContains(t, err, "ghost@lms.test")
}

func TestHealth(t *testing.T) {
	t.Parallel()

	server, err := platformgrpc.ListenHealth("127.0.0.1:0", "lms.api")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	out, err := run(t, Config{}, "health", "--addr", server.Addr().String(), "--service", "lms.api", "--timeout", "3s")
	require.NoError(t, err)
	assert.Contains(t, out, "is serving")

	server.SetServing("lms.api", false)
	start := time.Now()
	_, err = run(t, Config{}, "health", "--addr", server.Addr().String(), "--service", "lms.api", "--timeout", "300ms")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
}
