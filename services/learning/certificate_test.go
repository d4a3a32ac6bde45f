package learning

import (
	"context"
	"strings"
	"testing"

	courseModels "ruralearn/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueRejectsIncompleteCourseWhateverProgressClaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "imani")
	c, lessons := f.course(t, "Hygiene", 3)
	_, _, err := f.svc.Enroll(ctx, u.ID, c.ID)
	require.NoError(t, err)
	_, err = f.svc.SetLessonCompletion(ctx, u.ID, c.ID, lessons[0].ID, true)
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ?", u.ID, c.ID).
		Updates(map[string]interface{}{"progress": 100, "completed": true}).Error)

	_, _, err = f.svc.Issue(ctx, u.ID, c.ID)
	var incomplete *IncompleteLessonsError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 2, incomplete.Remaining)
	assert.Equal(t, "cannot generate certificate: 2 lessons incomplete", err.Error())
	assert.EqualValues(t, 0, f.count(t, &courseModels.Certificate{}, "user_id = ?", u.ID))
}

func TestIssueOnCourseWithoutLessons(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "obi")
	c, _ := f.course(t, "Draft Course", 0)
	_, _, err := f.svc.Enroll(ctx, u.ID, c.ID)
	require.NoError(t, err)

	_, _, err = f.svc.Issue(ctx, u.ID, c.ID)
	assert.ErrorIs(t, err, ErrNoLessons)
	assert.Equal(t, "cannot generate certificate: course has no lessons", err.Error())
	assert.EqualValues(t, 0, f.count(t, &courseModels.Certificate{}, "course_id = ?", c.ID))
}

func TestIssueTwiceReturnsSameCertificate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "adaeze")
	c, lessons := f.course(t, "Nutrition", 2)
	_, _, err := f.svc.Enroll(ctx, u.ID, c.ID)
	require.NoError(t, err)
	for _, l := range lessons {
		_, err = f.svc.SetLessonCompletion(ctx, u.ID, c.ID, l.ID, true)
		require.NoError(t, err)
	}

	first, created, err := f.svc.Issue(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.False(t, created, "the tracker already issued it")

	second, created, err := f.svc.Issue(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CertificateNumber, second.CertificateNumber)
	assert.EqualValues(t, 1, f.count(t, &courseModels.Certificate{}, "user_id = ? AND course_id = ?", u.ID, c.ID))
	assert.Len(t, f.notifier.certificates, 1)
}

func TestIssueForcesEnrollmentComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "kwame")
	c, lessons := f.course(t, "Mobile Money", 3)
	_, _, err := f.svc.Enroll(ctx, u.ID, c.ID)
	require.NoError(t, err)

	for _, l := range lessons {
		require.NoError(t, f.db.Create(&courseModels.LessonProgress{UserID: u.ID, LessonID: l.ID, Completed: true}).Error)
	}
	assert.Equal(t, 0, f.enrollment(t, u.ID, c.ID).Progress)

	cert, created, err := f.svc.Issue(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, strings.HasPrefix(cert.CertificateNumber, "RL-2026-"))
	assert.Equal(t, "Mobile Money", cert.Metadata["course_title"])

	e := f.enrollment(t, u.ID, c.ID)
	assert.Equal(t, 100, e.Progress)
	assert.True(t, e.Completed)
}

func TestCertificateListingAndVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "fatou")
	a, aLessons := f.course(t, "Literacy", 1)
	b, bLessons := f.course(t, "Numeracy", 1)

	for _, pair := range []struct {
		course courseModels.Course
		lesson courseModels.Lesson
	}{{a, aLessons[0]}, {b, bLessons[0]}} {
		_, _, err := f.svc.Enroll(ctx, u.ID, pair.course.ID)
		require.NoError(t, err)
		_, err = f.svc.SetLessonCompletion(ctx, u.ID, pair.course.ID, pair.lesson.ID, true)
		require.NoError(t, err)
	}

	certs, err := f.svc.ListCertificates(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, certs, 2)
	assert.Equal(t, b.ID, certs[0].CourseID)
	require.NotNil(t, certs[0].Course)
	assert.Equal(t, "Numeracy", certs[0].Course.Title)

	v, err := f.svc.VerifyCertificate(ctx, strings.ToLower(certs[1].CertificateNumber))
	require.NoError(t, err)
	assert.Equal(t, "fatou", v.HolderName)
	assert.Equal(t, "Literacy", v.CourseTitle)

	_, err = f.svc.VerifyCertificate(ctx, "RL-2026-DOESNOTEXIST")
	assert.ErrorIs(t, err, ErrCertificateNotFound)
	_, err = f.svc.VerifyCertificate(ctx, "  ")
	assert.ErrorIs(t, err, ErrCertificateNotFound)

	_, err = f.svc.GetCertificate(ctx, u.ID, a.ID+b.ID+10)
	assert.ErrorIs(t, err, ErrCertificateNotFound)
}
