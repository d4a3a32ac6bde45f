package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"ruralearn/config"
	"ruralearn/database"
	"ruralearn/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T) {
	t.Helper()
	prev := config.AppConfig
	config.AppConfig = &config.Config{JWTKey: "test-secret", JWTTTLHours: 1}
	t.Cleanup(func() { config.AppConfig = prev })
}

func call(t *testing.T, app *fiber.App, method, path, token string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func whoAmI(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)
	return JsonResponse(c, fiber.StatusOK, true, "ok", fiber.Map{"user_id": UserID(c), "role": role})
}

func TestJWTMiddleware(t *testing.T) {
	setup(t)
	app := fiber.New()
	app.Get("/me", JWTMiddleware, whoAmI)

	token, err := GenerateJWT(42, "Amara", models.RoleUser, "amara@ruralearn.test")
	require.NoError(t, err)

	status, env := call(t, app, "GET", "/me", token)
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"user_id":42,"role":"USER"}`, string(env.Data))

	status, env = call(t, app, "GET", "/me", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.False(t, env.Status)
	assert.Equal(t, "Please sign in to continue", env.Message)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": 42,
		"exp":    time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	status, env = call(t, app, "GET", "/me", signed)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Invalid or expired token", env.Message)

	config.AppConfig.JWTKey = "rotated"
	status, _ = call(t, app, "GET", "/me", token)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestOptionalJWTMiddleware(t *testing.T) {
	setup(t)
	app := fiber.New()
	app.Get("/maybe", OptionalJWTMiddleware, whoAmI)

	status, env := call(t, app, "GET", "/maybe", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"user_id":0,"role":""}`, string(env.Data))

	status, env = call(t, app, "GET", "/maybe", "garbage")
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"user_id":0,"role":""}`, string(env.Data))

	token, err := GenerateJWT(7, "Kofi", models.RoleAdmin, "kofi@ruralearn.test")
	require.NoError(t, err)
	_, env = call(t, app, "GET", "/maybe", token)
	assert.JSONEq(t, `{"user_id":7,"role":"ADMIN"}`, string(env.Data))
}

func TestCheckPermissionMiddleware(t *testing.T) {
	setup(t)
	db, err := database.Open("sqlite", ":memory:", gormlogger.Silent)
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	prev := database.Database
	database.Database = database.DbInstance{Db: db}
	t.Cleanup(func() { database.Database = prev })

	admin := models.User{Name: "Ops", Email: "ops@ruralearn.test", Password: "x", Role: models.RoleAdmin}
	learner := models.User{Name: "Ama", Email: "ama@ruralearn.test", Password: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(&admin).Error)
	require.NoError(t, db.Create(&learner).Error)
	require.NoError(t, db.Create(&models.Permission{UserID: admin.ID, Role: admin.Role, Permission: models.PermissionManageCourses}).Error)

	app := fiber.New()
	app.Get("/admin", JWTMiddleware, CheckPermissionMiddleware(models.PermissionManageCourses), whoAmI)

	adminToken, _ := GenerateJWT(admin.ID, admin.Name, admin.Role, admin.Email)
	learnerToken, _ := GenerateJWT(learner.ID, learner.Name, learner.Role, learner.Email)

	status, _ := call(t, app, "GET", "/admin", adminToken)
	assert.Equal(t, fiber.StatusOK, status)

	status, env := call(t, app, "GET", "/admin", learnerToken)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "You do not have permission to access this resource!", env.Message)

	// a lapsed lockout no longer denies access
	lapsed := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&admin).Updates(map[string]interface{}{"is_blocked": true, "blocked_until": lapsed}).Error)
	status, _ = call(t, app, "GET", "/admin", adminToken)
	assert.Equal(t, fiber.StatusOK, status)

	active := time.Now().Add(15 * time.Minute)
	require.NoError(t, db.Model(&admin).Update("blocked_until", active).Error)
	status, env = call(t, app, "GET", "/admin", adminToken)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "Your account is blocked!", env.Message)
}

func TestDebugToolsEnabled(t *testing.T) {
	setup(t)
	app := fiber.New()
	app.Post("/debug", DebugToolsEnabled, whoAmI)

	status, _ := call(t, app, "POST", "/debug", "")
	assert.Equal(t, fiber.StatusNotFound, status)

	config.AppConfig.EnableDebugTools = true
	status, _ = call(t, app, "POST", "/debug", "")
	assert.Equal(t, fiber.StatusOK, status)
}
