package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patshala/patshala-backend/internal/config"
	"github.com/patshala/patshala-backend/internal/database"
	"github.com/patshala/patshala-backend/internal/logger"
	"github.com/patshala/patshala-backend/internal/model"
	"github.com/patshala/patshala-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a demo batch, one student, one admin and a short published exam
// so the API can be exercised end to end on a fresh database.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	fmt.Println("=== Seeding Demo Data ===")

	// Batch
	batchID := uuid.New()
	_, err = pool.Exec(ctx, `
		INSERT INTO batches (id, title, description, price_bdt, is_published)
		VALUES ($1, $2, $3, $4, true)`,
		batchID, "HSC 2026 Physics", "Full physics preparation for HSC 2026.", 1500,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create batch")
	}
	fmt.Printf("Created batch: %s\n", batchID)

	// Accounts
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	admin := &model.User{
		Name:         "Demo Admin",
		Phone:        "01700000001",
		Role:         model.RoleAdmin,
		PasswordHash: string(hash),
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		log.Fatal().Err(err).Msg("Failed to create admin")
	}
	fmt.Printf("Created admin: %s (password: password)\n", admin.Phone)

	student := &model.User{
		Name:         "Demo Student",
		Phone:        "01800000001",
		Roll:         "101",
		Role:         model.RoleStudent,
		PasswordHash: string(hash),
	}
	if err := userRepo.Create(ctx, student); err != nil {
		log.Fatal().Err(err).Msg("Failed to create student")
	}
	if _, err := userRepo.EnrollBatch(ctx, student.ID, batchID); err != nil {
		log.Fatal().Err(err).Msg("Failed to enroll student")
	}
	fmt.Printf("Created student: %s (password: password)\n", student.Phone)

	// Exam
	examID := uuid.New()
	_, err = pool.Exec(ctx, `
		INSERT INTO exams (id, batch_id, title, duration_seconds, negative_mark, is_published)
		VALUES ($1, $2, $3, $4, $5, true)`,
		examID, batchID, "Physics Model Test 1", 600, 0.25,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create exam")
	}
	fmt.Printf("Created exam: %s\n", examID)

	questions := []struct {
		text    string
		options []string
		correct int
		expl    string
	}{
		{"What is the SI unit of force?", []string{"Joule", "Newton", "Watt", "Pascal"}, 1, "Force is measured in newtons (N)."},
		{"Acceleration due to gravity near Earth's surface is approximately:", []string{"8.9 m/s²", "9.8 m/s²", "10.8 m/s²", "9.0 m/s²"}, 1, "g ≈ 9.8 m/s² at sea level."},
		{"Which quantity is a vector?", []string{"Speed", "Mass", "Velocity", "Energy"}, 2, "Velocity has both magnitude and direction."},
		{"Ohm's law relates voltage to:", []string{"Power and time", "Current and resistance", "Charge and field", "Frequency and wavelength"}, 1, "V = IR."},
	}

	for i, q := range questions {
		question := &model.Question{
			ExamID:        examID,
			PromptText:    q.text,
			Options:       q.options,
			CorrectOption: q.correct,
			Explanation:   q.expl,
			OrderNum:      i + 1,
		}
		if err := questionRepo.Create(ctx, question); err != nil {
			log.Fatal().Err(err).Msg("Failed to create question")
		}
	}
	fmt.Printf("Created %d questions\n", len(questions))

	fmt.Println("Done.")
}
