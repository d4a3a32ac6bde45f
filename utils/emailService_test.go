package utils

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ruralearn/logger"
	"ruralearn/models"
	courseModels "ruralearn/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCertificateEmailGoesThroughSendgrid(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer SG.test", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewMailer("SG.test", "RuraLearn", "noreply@ruralearn.africa", logger.Nop())
	m.host = srv.URL
	m.async = false

	err := m.CertificateIssued(context.Background(),
		models.User{Name: "Amara <script>", Email: "amara@ruralearn.test"},
		courseModels.Course{Title: "Soil Health"},
		courseModels.Certificate{CertificateNumber: "RL-2026-ABC", IssueDate: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	assert.Contains(t, body, "amara@ruralearn.test")
	assert.Contains(t, body, "Your certificate for Soil Health")
	assert.Contains(t, body, "RL-2026-ABC")
	assert.NotContains(t, body, "<script>")
}

func TestMailerReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := NewMailer("SG.bad", "RuraLearn", "noreply@ruralearn.africa", logger.Nop())
	m.host = srv.URL
	m.async = false

	err := m.EnrollmentCreated(context.Background(), models.User{Email: "x@ruralearn.test"}, courseModels.Course{Title: "Poultry"})
	assert.Error(t, err)
}

func TestMailerWithoutKeyIsSilent(t *testing.T) {
	m := NewMailer("", "RuraLearn", "noreply@ruralearn.africa", logger.Nop())
	m.async = false
	assert.NoError(t, m.SendWelcomeEmail("x@ruralearn.test", "X"))
}
