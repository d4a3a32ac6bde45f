package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ruralearn/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// GenerateJWT generates a JWT token for the user
func GenerateJWT(userID uint, name, role, email string) (string, error) {
	ttl := 24 * time.Hour
	if config.AppConfig.JWTTTLHours > 0 {
		ttl = time.Duration(config.AppConfig.JWTTTLHours) * time.Hour
	}

	claims := jwt.MapClaims{
		"userId": userID,
		"name":   name,
		"role":   role,
		"email":  email,
		"iat":    time.Now().Unix(),
		"exp":    time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	jwtSecret := []byte(config.AppConfig.JWTKey)

	return token.SignedString(jwtSecret)
}

func parseToken(authHeader string) (jwt.MapClaims, error) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, errors.New("Invalid Authorization header format")
	}
	tokenString := authHeader[len("Bearer "):]

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTKey), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("Invalid token payload")
	}
	if _, ok := claims["userId"].(float64); !ok {
		return nil, errors.New("Invalid token payload")
	}
	return claims, nil
}

func setIdentity(c *fiber.Ctx, claims jwt.MapClaims) {
	// JWT numbers decode as float64
	c.Locals("userId", uint(claims["userId"].(float64)))
	if role, ok := claims["role"].(string); ok {
		c.Locals("role", role)
	}
}

// JWTMiddleware is a middleware to check for valid JWT token in the request
func JWTMiddleware(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Please sign in to continue", nil)
	}

	claims, err := parseToken(authHeader)
	if err != nil {
		return JsonResponse(c, fiber.StatusUnauthorized, false, err.Error(), nil)
	}

	setIdentity(c, claims)
	return c.Next()
}

// OptionalJWTMiddleware sets the identity when a valid token is sent and
// otherwise lets the request through anonymously.
func OptionalJWTMiddleware(c *fiber.Ctx) error {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		if claims, err := parseToken(authHeader); err == nil {
			setIdentity(c, claims)
		}
	}
	return c.Next()
}

// UserID returns the authenticated user id, or 0 when the request is anonymous.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userId").(uint)
	return id
}

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Validation failed!", errors)
}
