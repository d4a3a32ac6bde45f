package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	"ruralearn/config"
	"ruralearn/database"
	"ruralearn/logger"
	courseModels "ruralearn/models/course"
	"ruralearn/services/catalog"
)

// Imports courses and lessons from a CSV with one row per lesson:
//
//	title,description,category,level,duration,image,lesson_title,lesson_content,lesson_duration,order_index,video_url,published
//
// Courses are matched by title; rows for lessons already present at the same
// order_index are skipped, so the import can be re-run.
func main() {
	path := flag.String("file", "courses.csv", "CSV file to import")
	flag.Parse()

	// Load config and connect to database
	config.LoadConfig()
	database.ConnectDb()

	appLog, err := logger.New(config.AppConfig.LogMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	file, err := os.Open(*path)
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}
	if len(records) < 2 {
		log.Fatal("CSV file is empty or has only headers")
	}

	header := records[0]
	log.Printf("CSV Headers: %v", header)
	log.Printf("Total rows to import: %d", len(records)-1)

	headerIndex := make(map[string]int)
	for i, h := range header {
		headerIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}

	ctx := context.Background()
	db := database.Database.Db
	svc := catalog.New(db, appLog, nil, 0)

	courseIDs := make(map[string]uint)
	publish := make(map[uint]bool)
	coursesCreated, lessonsAdded, skipped := 0, 0, 0

	for i, row := range records[1:] {
		title := getField(row, headerIndex, "title")
		lessonTitle := getField(row, headerIndex, "lesson_title")
		if title == "" || lessonTitle == "" {
			log.Printf("Row %d: missing title or lesson_title, skipped", i+2)
			skipped++
			continue
		}

		key := strings.ToLower(title)
		courseID, ok := courseIDs[key]
		if !ok {
			var existing courseModels.Course
			err := db.Where("LOWER(title) = ? AND is_deleted = ?", key, false).First(&existing).Error
			if err == nil {
				courseID = existing.ID
			} else {
				course, err := svc.CreateCourse(ctx, catalog.CourseInput{
					Title:        title,
					Description:  getField(row, headerIndex, "description"),
					Category:     getField(row, headerIndex, "category"),
					Level:        getField(row, headerIndex, "level"),
					Duration:     getField(row, headerIndex, "duration"),
					ThumbnailURL: getField(row, headerIndex, "image"),
				})
				if err != nil {
					log.Printf("Row %d: error creating course %q: %v", i+2, title, err)
					skipped++
					continue
				}
				courseID = course.ID
				coursesCreated++
			}
			courseIDs[key] = courseID
		}

		_, err := svc.AddLesson(ctx, courseID, catalog.LessonInput{
			Title:      lessonTitle,
			Content:    getField(row, headerIndex, "lesson_content"),
			Duration:   parseInt(getField(row, headerIndex, "lesson_duration")),
			OrderIndex: parseInt(getField(row, headerIndex, "order_index")),
			VideoURL:   getField(row, headerIndex, "video_url"),
		})
		switch {
		case errors.Is(err, catalog.ErrDuplicateOrder):
			skipped++
		case err != nil:
			log.Printf("Row %d: error adding lesson %q: %v", i+2, lessonTitle, err)
			skipped++
		default:
			lessonsAdded++
		}

		if published, err := strconv.ParseBool(getField(row, headerIndex, "published")); err == nil && published {
			publish[courseID] = true
		}
	}

	for courseID := range publish {
		if _, err := svc.SetPublished(ctx, courseID, true); err != nil {
			log.Printf("Error publishing course %d: %v", courseID, err)
		}
	}

	log.Printf("=== Import Complete ===")
	log.Printf("Courses created: %d", coursesCreated)
	log.Printf("Lessons added: %d", lessonsAdded)
	log.Printf("Published: %d", len(publish))
	log.Printf("Skipped: %d", skipped)
}

// getField safely gets a field from the row by header name
func getField(row []string, headerIndex map[string]int, field string) string {
	if idx, ok := headerIndex[field]; ok && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

// parseInt converts string to int, 0 when empty or invalid
func parseInt(s string) int {
	if s == "" {
		return 0
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return val
}
