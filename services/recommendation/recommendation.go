// Package recommendation suggests courses from a learner's interests and
// level. An external recommender is tried first when configured; the local
// catalog matcher is always the fallback.
package recommendation

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"ruralearn/logger"
	courseModels "ruralearn/models/course"

	"github.com/go-resty/resty/v2"
	"gorm.io/gorm"
)

const (
	SourceAI      = "ai"
	SourceCatalog = "catalog"

	maxResults = 6
)

// Cache is the subset of utils/cache.RedisCache used here.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type Request struct {
	Interests       string                 `json:"interests"`
	Level           string                 `json:"level"`
	Query           string                 `json:"query,omitempty"`
	UserPreferences map[string]interface{} `json:"userPreferences,omitempty"`
}

type Result struct {
	Recommendations []courseModels.Course `json:"recommendations"`
	Message         string                `json:"message"`
	Source          string                `json:"source"`
}

type Service struct {
	db     *gorm.DB
	log    *logger.Logger
	client *resty.Client
	cfg    Config
	cache  Cache
}

// New builds the service. cache may be nil; an empty cfg.Endpoint disables
// the external recommender.
func New(db *gorm.DB, baseLog *logger.Logger, cfg Config, cache Cache) *Service {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &Service{
		db:     db,
		log:    baseLog.With("service", "recommendation"),
		client: client,
		cfg:    cfg,
		cache:  cache,
	}
}

// Recommend ranks published courses from the local catalog.
func (s *Service) Recommend(ctx context.Context, req Request) (*Result, error) {
	req = fillFromQuery(req)

	var courses []courseModels.Course
	if err := s.db.WithContext(ctx).
		Where("is_deleted = ? AND is_published = ?", false, true).
		Order("student_count desc").
		Order("id asc").
		Find(&courses).Error; err != nil {
		return nil, err
	}

	ranked := rank(courses, splitInterests(req.Interests), req.Level)
	return &Result{
		Recommendations: ranked,
		Message:         message(req, len(ranked)),
		Source:          SourceCatalog,
	}, nil
}

// RecommendAI asks the external recommender and falls back to Recommend on
// any failure, so it only errors when the catalog itself cannot be read.
func (s *Service) RecommendAI(ctx context.Context, req Request) (*Result, error) {
	req = fillFromQuery(req)
	if s.cfg.Endpoint == "" {
		return s.Recommend(ctx, req)
	}

	key := cacheKey(req)
	if s.cache != nil {
		var cached Result
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	result, err := s.remote(ctx, req)
	if err != nil {
		s.log.Warn("external recommender failed, using catalog", "error", err)
		return s.Recommend(ctx, req)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, result, s.cfg.CacheTTL); err != nil {
			s.log.Warn("recommendation cache write failed", "error", err)
		}
	}
	return result, nil
}

func (s *Service) remote(ctx context.Context, req Request) (*Result, error) {
	var body struct {
		Recommendations []courseModels.Course `json:"recommendations"`
		Message         string                `json:"message"`
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		ForceContentType("application/json").
		SetResult(&body).
		Post(s.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("recommender request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("recommender returned %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}
	if body.Recommendations == nil {
		body.Recommendations = []courseModels.Course{}
	}
	if body.Message == "" {
		body.Message = "Here are some recommended courses for you."
	}
	return &Result{Recommendations: body.Recommendations, Message: body.Message, Source: SourceAI}, nil
}

func rank(courses []courseModels.Course, interests []string, level string) []courseModels.Course {
	type scored struct {
		course courseModels.Course
		score  int
	}
	level = strings.ToLower(strings.TrimSpace(level))

	var out []scored
	for _, c := range courses {
		score := 0
		category := strings.ToLower(c.Category)
		text := strings.ToLower(c.Title + " " + c.Description)
		for _, interest := range interests {
			switch {
			case category == interest:
				score += 3
			case strings.Contains(text, interest):
				score++
			}
		}
		if level != "" && strings.ToLower(c.Level) == level {
			score += 2
		}
		if len(interests) == 0 && level == "" {
			score = 1
		}
		if score > 0 {
			out = append(out, scored{c, score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })

	ranked := make([]courseModels.Course, 0, maxResults)
	for i := 0; i < len(out) && i < maxResults; i++ {
		ranked = append(ranked, out[i].course)
	}
	return ranked
}

func message(req Request, n int) string {
	if n == 0 {
		return "No recommendations found. Try adjusting your preferences."
	}
	switch {
	case req.Interests != "" && req.Level != "":
		return fmt.Sprintf("I've found some %s level courses in %s that might interest you.", req.Level, req.Interests)
	case req.Interests != "":
		return fmt.Sprintf("Here are some courses in %s that might interest you.", req.Interests)
	default:
		return "Here are some recommended courses for you."
	}
}

func splitInterests(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func cacheKey(req Request) string {
	prefs, _ := json.Marshal(req.UserPreferences)
	sum := sha1.Sum([]byte(strings.ToLower(req.Interests) + "|" + strings.ToLower(req.Level) + "|" + string(prefs)))
	return "recommendations:" + hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
