package authController

import (
	"errors"
	"log"
	"time"

	"ruralearn/config"
	"ruralearn/database"
	"ruralearn/middleware"
	"ruralearn/models"
	authValidator "ruralearn/validators/auth"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	maxFailedLogins   = 5
	failedLoginWindow = 15 * time.Minute
	blockDuration     = 15 * time.Minute
	loginHistoryLimit = 10
)

// WelcomeSender is the part of utils.Mailer used at signup.
type WelcomeSender interface {
	SendWelcomeEmail(email, name string) error
}

var mailer WelcomeSender

// SetMailer configures the welcome email sender. nil disables it.
func SetMailer(m WelcomeSender) {
	mailer = m
}

func Signup(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*authValidator.SignupRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

	// Check if email already exists
	var existing int64
	if err := db.Model(&models.User{}).Where("email = ?", reqData.Email).Count(&existing).Error; err != nil {
		log.Printf("Error checking email: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}
	if existing > 0 {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	role := models.RoleUser
	if config.AppConfig.IsAdminEmail(reqData.Email) {
		role = models.RoleAdmin
	}

	newUser := models.User{
		Name:           reqData.Name,
		Email:          reqData.Email,
		Role:           role,
		Password:       string(hashedPassword),
		Interests:      reqData.Interests,
		PreferredLevel: reqData.PreferredLevel,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newUser).Error; err != nil {
			return err
		}
		return SeedPermissions(tx, newUser.Role, newUser.ID)
	})
	if err != nil {
		log.Printf("Error saving user to database: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to Signup user!", nil)
	}

	if mailer != nil {
		if err := mailer.SendWelcomeEmail(newUser.Email, newUser.Name); err != nil {
			log.Printf("Error sending welcome email to %s: %v", newUser.Email, err)
		}
	}

	token, err := middleware.GenerateJWT(newUser.ID, newUser.Name, newUser.Role, newUser.Email)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User registered successfully.", fiber.Map{
		"user":  newUser,
		"token": token,
	})
}

// SeedPermissions seeds default permissions for a given role and user ID
func SeedPermissions(db *gorm.DB, role string, userID uint) error {
	var permissionRecords []models.Permission
	for _, p := range models.DefaultPermissions(role) {
		permissionRecords = append(permissionRecords, models.Permission{
			UserID:     userID,
			Role:       role,
			Permission: p,
		})
	}
	return db.Create(&permissionRecords).Error
}

func Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLogin").(*authValidator.LoginRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Failed to parse request body!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("email = ? AND is_deleted = ?", reqData.Email, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	now := time.Now()

	// Check if the user is blocked
	if user.IsBlocked && user.BlockedUntil != nil && user.BlockedUntil.After(now) {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Your account is temporarily blocked. Try again later.", nil)
	}

	if user.LastFailedLogin != nil && now.Sub(*user.LastFailedLogin) > failedLoginWindow {
		user.FailedLoginAttempts = 0
		user.LastFailedLogin = nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		user.FailedLoginAttempts++
		user.LastFailedLogin = &now

		if user.FailedLoginAttempts >= maxFailedLogins {
			user.IsBlocked = true
			unblockTime := now.Add(blockDuration)
			user.BlockedUntil = &unblockTime
		}
		if err := db.Save(&user).Error; err != nil {
			log.Printf("Error saving failed login for user %d: %v", user.ID, err)
		}
		recordLogin(c, db, user.ID, false)

		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	user.LastLogin = &now
	user.FailedLoginAttempts = 0
	user.LastFailedLogin = nil
	user.IsBlocked = false
	user.BlockedUntil = nil
	if err := db.Save(&user).Error; err != nil {
		log.Printf("Error saving last login time: %v", err)
	}
	recordLogin(c, db, user.ID, true)

	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"user":  user,
		"token": token,
	})
}

func recordLogin(c *fiber.Ctx, db *gorm.DB, userID uint, success bool) {
	ip := c.IP()
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		ip = forwarded
	}

	record := models.LoginRecord{
		UserID:    userID,
		IPAddress: ip,
		Device:    c.Get("User-Agent"),
		Success:   success,
		Timestamp: time.Now(),
	}
	if err := db.Create(&record).Error; err != nil {
		log.Printf("Error saving login tracking details: %v", err)
	}
}

// Profile returns the signed-in user with their permissions and recent logins.
func Profile(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch profile!", nil)
	}

	var permissions []string
	if err := db.Model(&models.Permission{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Pluck("permission", &permissions).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch profile!", nil)
	}

	var logins []models.LoginRecord
	if err := db.Where("user_id = ?", userID).
		Order("timestamp desc").
		Limit(loginHistoryLimit).
		Find(&logins).Error; err != nil {
		log.Printf("Error fetching login history for user %d: %v", userID, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched successfully.", fiber.Map{
		"user":        user,
		"permissions": permissions,
		"logins":      logins,
	})
}
