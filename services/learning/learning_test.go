package learning

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ruralearn/database"
	"ruralearn/logger"
	"ruralearn/models"
	courseModels "ruralearn/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type recordingNotifier struct {
	mu           sync.Mutex
	enrollments  []uint
	certificates []string
	fail         bool
}

func (n *recordingNotifier) EnrollmentCreated(_ context.Context, user models.User, course courseModels.Course) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enrollments = append(n.enrollments, course.ID)
	if n.fail {
		return errors.New("mail relay down")
	}
	return nil
}

func (n *recordingNotifier) CertificateIssued(_ context.Context, user models.User, course courseModels.Course, cert courseModels.Certificate) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.certificates = append(n.certificates, cert.CertificateNumber)
	if n.fail {
		return errors.New("mail relay down")
	}
	return nil
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	notifier *recordingNotifier
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.Open("sqlite", ":memory:", gormlogger.Silent)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	f := &fixture{
		db:       db,
		notifier: &recordingNotifier{},
		clock:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = New(db, logger.Nop(), f.notifier)
	f.svc.now = func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}
	return f
}

func (f *fixture) user(t *testing.T, name string) models.User {
	t.Helper()
	u := models.User{Name: name, Email: fmt.Sprintf("%s@ruralearn.test", name), Password: "x", Role: models.RoleUser}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) course(t *testing.T, title string, lessons int) (courseModels.Course, []courseModels.Lesson) {
	t.Helper()
	c := courseModels.Course{Title: title, Category: "Agriculture", Level: "Beginner", IsPublished: true, LessonCount: lessons}
	require.NoError(t, f.db.Create(&c).Error)

	out := make([]courseModels.Lesson, 0, lessons)
	for i := 1; i <= lessons; i++ {
		l := courseModels.Lesson{CourseID: c.ID, Title: fmt.Sprintf("%s %d", title, i), OrderIndex: i, Duration: 10}
		require.NoError(t, f.db.Create(&l).Error)
		out = append(out, l)
	}
	return c, out
}

func (f *fixture) enrollment(t *testing.T, userID, courseID uint) courseModels.Enrollment {
	t.Helper()
	var e courseModels.Enrollment
	require.NoError(t, f.db.Where("user_id = ? AND course_id = ?", userID, courseID).Take(&e).Error)
	return e
}

func (f *fixture) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func TestProgressPercent(t *testing.T) {
	cases := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{3, 0, 0},
		{0, 4, 0},
		{1, 4, 25},
		{2, 4, 50},
		{4, 4, 100},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{1, 200, 1},
		{199, 200, 99},
		{5, 4, 100},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d_of_%d", tc.completed, tc.total), func(t *testing.T) {
			assert.Equal(t, tc.want, progressPercent(tc.completed, tc.total))
		})
	}
}

func TestStepErrorMessages(t *testing.T) {
	cause := errors.New("connection reset")

	err := stepErr(OpIssueCertificate, "create certificate", cause)
	assert.Contains(t, err.Error(), "error generating certificate")
	assert.ErrorIs(t, err, cause)

	var step *StepError
	require.ErrorAs(t, err, &step)
	assert.Equal(t, "create certificate", step.Step)

	err = stepErr(OpUpdateProgress, "update enrollment", cause)
	assert.Equal(t, "update progress failed (update enrollment): connection reset", err.Error())
}

func TestIsExpected(t *testing.T) {
	assert.True(t, IsExpected(ErrNoLessons))
	assert.True(t, IsExpected(&IncompleteLessonsError{Remaining: 2}))
	assert.True(t, IsExpected(fmt.Errorf("wrapped: %w", ErrNotEnrolled)))
	assert.False(t, IsExpected(stepErr(OpEnroll, "create enrollment", errors.New("boom"))))
	assert.Equal(t, "cannot generate certificate: 3 lessons incomplete", (&IncompleteLessonsError{Remaining: 3}).Error())
}
