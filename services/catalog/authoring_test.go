package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"ruralearn/logger"
	courseModels "ruralearn/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReconciler struct {
	courses []uint
	err     error
}

func (r *recordingReconciler) ReconcileCourse(_ context.Context, courseID uint) (int, error) {
	r.courses = append(r.courses, courseID)
	return 1, r.err
}

func seedCourse(t *testing.T, svc *Service, titles ...string) (*courseModels.Course, []*courseModels.Lesson) {
	t.Helper()
	ctx := context.Background()
	course, err := svc.CreateCourse(ctx, CourseInput{Title: "Goat Rearing", Category: "Agriculture", Level: "Beginner"})
	require.NoError(t, err)
	lessons := make([]*courseModels.Lesson, 0, len(titles))
	for _, title := range titles {
		l, err := svc.AddLesson(ctx, course.ID, LessonInput{Title: title, Duration: 15})
		require.NoError(t, err)
		lessons = append(lessons, l)
	}
	return course, lessons
}

func liveOrder(t *testing.T, svc *Service, courseID uint) []string {
	t.Helper()
	var lessons []courseModels.Lesson
	require.NoError(t, svc.db.Where("course_id = ? AND is_deleted = ?", courseID, false).
		Order("order_index asc").Find(&lessons).Error)
	titles := make([]string, len(lessons))
	for i, l := range lessons {
		titles[i] = l.Title
	}
	return titles
}

func strPtr(s string) *string { return &s }

func TestUpdateCourse(t *testing.T) {
	db := openDB(t)
	mem := newMemoryCache()
	svc := New(db, logger.Nop(), mem, time.Minute)
	ctx := context.Background()
	course, _ := seedCourse(t, svc, "Housing")

	mem.entries["catalog:list:stale"] = &CoursePage{}
	updated, err := svc.UpdateCourse(ctx, course.ID, CourseUpdate{Title: strPtr("  Goat Health "), Level: strPtr("Intermediate")})
	require.NoError(t, err)
	assert.Equal(t, "Goat Health", updated.Title)
	assert.Equal(t, "Intermediate", updated.Level)
	assert.Equal(t, "Agriculture", updated.Category)
	assert.Empty(t, mem.entries)

	unchanged, err := svc.UpdateCourse(ctx, course.ID, CourseUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "Goat Health", unchanged.Title)

	_, err = svc.UpdateCourse(ctx, course.ID+50, CourseUpdate{Title: strPtr("Nowhere")})
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestDeleteCourse(t *testing.T) {
	db := openDB(t)
	svc := New(db, logger.Nop(), nil, time.Minute)
	ctx := context.Background()
	course, lessons := seedCourse(t, svc, "Housing", "Feeding")
	_, err := svc.SetPublished(ctx, course.ID, true)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCourse(ctx, course.ID))

	var reloaded courseModels.Course
	require.NoError(t, db.First(&reloaded, course.ID).Error)
	assert.True(t, reloaded.IsDeleted)
	assert.False(t, reloaded.IsPublished)
	assert.Equal(t, 0, reloaded.LessonCount)

	for _, l := range lessons {
		var stored courseModels.Lesson
		require.NoError(t, db.First(&stored, l.ID).Error)
		assert.True(t, stored.IsDeleted)
		assert.Equal(t, -int(l.ID), stored.OrderIndex)
	}

	page, err := svc.ListCourses(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, page.Courses)

	assert.ErrorIs(t, svc.DeleteCourse(ctx, course.ID), ErrCourseNotFound)
	_, err = svc.AddLesson(ctx, course.ID, LessonInput{Title: "Late"})
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestUpdateLesson(t *testing.T) {
	db := openDB(t)
	svc := New(db, logger.Nop(), nil, time.Minute)
	ctx := context.Background()
	course, lessons := seedCourse(t, svc, "Housing")
	other, _ := seedCourse(t, svc, "Elsewhere")

	minutes := 40
	updated, err := svc.UpdateLesson(ctx, course.ID, lessons[0].ID, LessonUpdate{
		Title:    strPtr("Shelter and Bedding"),
		Duration: &minutes,
	})
	require.NoError(t, err)
	assert.Equal(t, "Shelter and Bedding", updated.Title)
	assert.Equal(t, 40, updated.Duration)
	assert.Equal(t, 1, updated.OrderIndex)

	_, err = svc.UpdateLesson(ctx, other.ID, lessons[0].ID, LessonUpdate{Title: strPtr("Moved")})
	assert.ErrorIs(t, err, ErrLessonNotFound)

	_, err = svc.UpdateLesson(ctx, course.ID+50, lessons[0].ID, LessonUpdate{Title: strPtr("Moved")})
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestDeleteLessonReconcilesProgress(t *testing.T) {
	db := openDB(t)
	mem := newMemoryCache()
	svc := New(db, logger.Nop(), mem, time.Minute)
	reconciler := &recordingReconciler{}
	svc.SetProgressReconciler(reconciler)
	ctx := context.Background()
	course, lessons := seedCourse(t, svc, "Housing", "Feeding", "Milking")

	mem.entries["catalog:list:stale"] = &CoursePage{}
	require.NoError(t, svc.DeleteLesson(ctx, course.ID, lessons[1].ID))

	assert.Equal(t, []uint{course.ID}, reconciler.courses)
	assert.Empty(t, mem.entries)
	assert.Equal(t, []string{"Housing", "Milking"}, liveOrder(t, svc, course.ID))

	var reloaded courseModels.Course
	require.NoError(t, db.First(&reloaded, course.ID).Error)
	assert.Equal(t, 2, reloaded.LessonCount)

	// the freed slot is not reused; appends go after the highest index
	added, err := svc.AddLesson(ctx, course.ID, LessonInput{Title: "Selling"})
	require.NoError(t, err)
	assert.Equal(t, 4, added.OrderIndex)

	assert.ErrorIs(t, svc.DeleteLesson(ctx, course.ID, lessons[1].ID), ErrLessonNotFound)
	assert.Len(t, reconciler.courses, 1)

	reconciler.err = errors.New("database is locked")
	require.NoError(t, svc.DeleteLesson(ctx, course.ID, lessons[0].ID))
	assert.Len(t, reconciler.courses, 2)
}

func TestReorderLessons(t *testing.T) {
	db := openDB(t)
	svc := New(db, logger.Nop(), nil, time.Minute)
	ctx := context.Background()
	course, lessons := seedCourse(t, svc, "Housing", "Feeding", "Milking")
	require.NoError(t, svc.DeleteLesson(ctx, course.ID, lessons[1].ID))
	extra, err := svc.AddLesson(ctx, course.ID, LessonInput{Title: "Selling"})
	require.NoError(t, err)

	ordered, err := svc.ReorderLessons(ctx, course.ID, []uint{extra.ID, lessons[2].ID, lessons[0].ID})
	require.NoError(t, err)
	require.Len(t, ordered, 3)
	for i, l := range ordered {
		assert.Equal(t, i+1, l.OrderIndex)
	}
	assert.Equal(t, []string{"Selling", "Milking", "Housing"}, liveOrder(t, svc, course.ID))

	cases := map[string][]uint{
		"missing lesson":   {extra.ID, lessons[2].ID},
		"duplicate lesson": {extra.ID, extra.ID, lessons[0].ID},
		"deleted lesson":   {extra.ID, lessons[1].ID, lessons[0].ID},
		"foreign lesson":   {extra.ID, lessons[2].ID, lessons[0].ID, 999},
	}
	for name, ids := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ReorderLessons(ctx, course.ID, ids)
			assert.ErrorIs(t, err, ErrInvalidLessonOrder)
		})
	}
	assert.Equal(t, []string{"Selling", "Milking", "Housing"}, liveOrder(t, svc, course.ID))

	_, err = svc.ReorderLessons(ctx, course.ID+50, nil)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}
