package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// LoginSessionKey returns the cache key holding a user's active login JTI.
func (r *CacheKeyStruct) LoginSessionKey(userID string) string {
	return fmt.Sprintf("login:%s", userID)
}

// ExamProgressKey returns the durable-storage key for a student's
// in-progress exam snapshot (answers + remaining seconds).
func (r *CacheKeyStruct) ExamProgressKey(examID, studentID string) string {
	return fmt.Sprintf("exam_progress:%s:%s", examID, studentID)
}

// LastExamResultKey returns the single last-result slot for a student.
// Last submission wins; only one exam's result is "current" at a time.
func (r *CacheKeyStruct) LastExamResultKey(studentID string) string {
	return fmt.Sprintf("last_exam_result:%s", studentID)
}

// ExamPaperKey returns the cache key for a published exam paper
// (questions without correct answers).
func (r *CacheKeyStruct) ExamPaperKey(examID string) string {
	return fmt.Sprintf("exam:%s:paper", examID)
}

var CacheKey = NewCacheKeyStruct()
