package recommendation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ruralearn/database"
	"ruralearn/logger"
	courseModels "ruralearn/models/course"
	"ruralearn/utils/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type mapCache map[string]*Result

func (m mapCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	v, ok := m[key]
	if !ok {
		return cache.ErrNotFound
	}
	*dest.(*Result) = *v
	return nil
}

func (m mapCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m[key] = value.(*Result)
	return nil
}

func seededDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:", gormlogger.Silent)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	courses := []courseModels.Course{
		{Title: "Organic Vegetable Farming", Category: "Agriculture", Level: "Beginner", IsPublished: true, StudentCount: 40},
		{Title: "Soil Science", Category: "Agriculture", Level: "Advanced", IsPublished: true, StudentCount: 10},
		{Title: "Intro to Coding", Category: "Technology", Level: "Beginner", IsPublished: true, StudentCount: 90},
		{Title: "Small Business Finance", Category: "Business", Level: "Intermediate", IsPublished: true},
		{Title: "Hidden Draft", Category: "Agriculture", Level: "Beginner"},
	}
	require.NoError(t, db.Create(&courses).Error)
	return db
}

func TestInferPreferences(t *testing.T) {
	cases := []struct {
		text, interests, level string
	}{
		{"I want to learn farming, I'm a beginner", "Agriculture", "Beginner"},
		{"advanced marketing for my shop", "Business", "Advanced"},
		{"something about mental health with some experience", "Health", "Intermediate"},
		{"anything", "Technology", "Beginner"},
		// "it" only matches as a whole word.
		{"Sitting with livestock", "Agriculture", "Beginner"},
	}
	for _, tc := range cases {
		interests, level := InferPreferences(tc.text)
		assert.Equal(t, tc.interests, interests, tc.text)
		assert.Equal(t, tc.level, level, tc.text)
	}
}

func TestRecommendRanksCatalog(t *testing.T) {
	svc := New(seededDB(t), logger.Nop(), Config{}, nil)

	res, err := svc.Recommend(context.Background(), Request{Interests: "agriculture", Level: "Beginner"})
	require.NoError(t, err)
	assert.Equal(t, SourceCatalog, res.Source)
	require.NotEmpty(t, res.Recommendations)
	assert.Equal(t, "Organic Vegetable Farming", res.Recommendations[0].Title)
	for _, c := range res.Recommendations {
		assert.NotEqual(t, "Hidden Draft", c.Title)
	}
	assert.Contains(t, res.Message, "Beginner level courses in agriculture")

	res, err = svc.Recommend(context.Background(), Request{Interests: "astronomy"})
	require.NoError(t, err)
	assert.Empty(t, res.Recommendations)
	assert.Equal(t, "No recommendations found. Try adjusting your preferences.", res.Message)

	res, err = svc.Recommend(context.Background(), Request{})
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 4)
	assert.Equal(t, "Intro to Coding", res.Recommendations[0].Title)
}

func TestRecommendAIUsesRemoteAndCaches(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Agriculture", req.Interests)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"recommendations":[{"title":"Drip Irrigation"}],"message":"Picked for you"}`))
	}))
	defer srv.Close()

	mc := mapCache{}
	svc := New(seededDB(t), logger.Nop(), Config{Endpoint: srv.URL, APIKey: "secret", CacheTTL: time.Minute}, mc)

	res, err := svc.RecommendAI(context.Background(), Request{Query: "help me with irrigation"})
	require.NoError(t, err)
	assert.Equal(t, SourceAI, res.Source)
	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, "Drip Irrigation", res.Recommendations[0].Title)
	assert.Equal(t, "Picked for you", res.Message)

	_, err = svc.RecommendAI(context.Background(), Request{Interests: "Agriculture", Level: "Beginner"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestRecommendAIFallsBackToCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc := New(seededDB(t), logger.Nop(), Config{Endpoint: srv.URL}, nil)
	res, err := svc.RecommendAI(context.Background(), Request{Interests: "technology"})
	require.NoError(t, err)
	assert.Equal(t, SourceCatalog, res.Source)
	require.NotEmpty(t, res.Recommendations)
	assert.Equal(t, "Intro to Coding", res.Recommendations[0].Title)

	garbled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>gateway login</html>"))
	}))
	defer garbled.Close()

	svc = New(seededDB(t), logger.Nop(), Config{Endpoint: garbled.URL}, nil)
	res, err = svc.RecommendAI(context.Background(), Request{Interests: "technology"})
	require.NoError(t, err)
	assert.Equal(t, SourceCatalog, res.Source)

	noRemote := New(seededDB(t), logger.Nop(), Config{}, nil)
	res, err = noRemote.RecommendAI(context.Background(), Request{Interests: "business"})
	require.NoError(t, err)
	assert.Equal(t, SourceCatalog, res.Source)
}
