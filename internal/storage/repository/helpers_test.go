package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/school-crm/internal/migrations"
	"github.com/magabrotheeeer/school-crm/internal/models"
)

func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	require.NoError(t, db.PingContext(ctx))

	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db, filepath.Join(root, "migrations")))

	cleanup := func() {
		_ = db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return NewWithDB(db), cleanup
}

// testFactory создаёт тестовые данные напрямую через Storage.
type testFactory struct {
	t *testing.T
	s *Storage
}

func newTestFactory(t *testing.T, s *Storage) *testFactory {
	return &testFactory{t: t, s: s}
}

func ptr[T any](v T) *T {
	return &v
}

func (f *testFactory) direction(name string, duration float64) int64 {
	d, err := f.s.Directions().Create(context.Background(),
		&models.Direction{Name: ptr(name), Duration: ptr(duration), Color: ptr("#00ff00")})
	require.NoError(f.t, err)
	return d.ID
}

func (f *testFactory) source(name string) int64 {
	src, err := f.s.Sources().Create(context.Background(), &models.Source{Name: name, Color: ptr("#0000ff")})
	require.NoError(f.t, err)
	return src.ID
}

func (f *testFactory) rejectionReason(title string) int64 {
	r, err := f.s.RejectionReasons().Create(context.Background(), &models.RejectionReason{Title: title})
	require.NoError(f.t, err)
	return r.ID
}

func (f *testFactory) teacher(first, phone, email, patent string) int64 {
	id, err := f.s.CreateUser(context.Background(), &models.User{
		FirstName: first,
		LastName:  "Teacher",
		Phone:     phone,
		Email:     email,
		Role:      models.RoleTeacher,
		Teacher: &models.TeacherProfile{
			PatentNumber: patent,
			PatentTerm:   models.NewDate(2030, time.January, 1),
		},
	})
	require.NoError(f.t, err)
	return id
}

func (f *testFactory) group(name string, teacherID, directionID int64) int64 {
	start := models.NewDate(2024, time.January, 1)
	id, err := f.s.CreateGroup(context.Background(), &models.Group{
		Name:        name,
		TeacherID:   &teacherID,
		DirectionID: &directionID,
		Audience:    models.AudienceSmall,
		StartDate:   &start,
		Timetable:   models.TimetableMonWedFri,
	})
	require.NoError(f.t, err)
	return id
}

func (f *testFactory) application(first, phone string, directionID, sourceID int64) *models.Application {
	app, err := f.s.CreateApplication(context.Background(), models.ApplicationInput{
		Student: models.StudentInput{
			FirstName: first,
			LastName:  "Student",
			Phone:     phone,
			Email:     first + "@example.com",
		},
		DirectionID: directionID,
		SourceID:    sourceID,
	}, &models.Actor{ID: 1, Email: "admin@crm.local"})
	require.NoError(f.t, err)
	return app
}
