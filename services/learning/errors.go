package learning

import (
	"errors"
	"fmt"
)

var (
	ErrNotSignedIn         = errors.New("please sign in to continue")
	ErrCourseNotFound      = errors.New("course not found")
	ErrEnrollmentNotFound  = errors.New("could not find enrollment record")
	ErrNotEnrolled         = errors.New("you are not enrolled in this course")
	ErrLessonNotInCourse   = errors.New("lesson does not belong to this course")
	ErrNoLessons           = errors.New("cannot generate certificate: course has no lessons")
	ErrCertificateNotFound = errors.New("certificate not found")
)

const (
	OpEnroll           = "enroll"
	OpUnenroll         = "unenroll"
	OpUpdateProgress   = "update progress"
	OpIssueCertificate = "issue certificate"
)

// IncompleteLessonsError is the normal negative result of a certificate
// request made before every lesson is complete.
type IncompleteLessonsError struct {
	Remaining int
}

func (e *IncompleteLessonsError) Error() string {
	return fmt.Sprintf("cannot generate certificate: %d lessons incomplete", e.Remaining)
}

// StepError wraps a persistence failure with the operation and step it hit.
type StepError struct {
	Op   string
	Step string
	Err  error
}

func (e *StepError) Error() string {
	if e.Op == OpIssueCertificate {
		return fmt.Sprintf("error generating certificate (%s): %v", e.Step, e.Err)
	}
	return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func stepErr(op, step string, err error) error {
	return &StepError{Op: op, Step: step, Err: err}
}

// IsExpected reports whether err is a user-facing negative result rather than
// a persistence failure.
func IsExpected(err error) bool {
	var incomplete *IncompleteLessonsError
	switch {
	case errors.As(err, &incomplete),
		errors.Is(err, ErrNotSignedIn),
		errors.Is(err, ErrCourseNotFound),
		errors.Is(err, ErrEnrollmentNotFound),
		errors.Is(err, ErrNotEnrolled),
		errors.Is(err, ErrLessonNotInCourse),
		errors.Is(err, ErrNoLessons),
		errors.Is(err, ErrCertificateNotFound):
		return true
	}
	return false
}
