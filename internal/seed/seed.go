package seed

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	appModels "github.com/yigit/unievents/internal/app/models"
	appRepos "github.com/yigit/unievents/internal/app/repositories"
	"github.com/yigit/unievents/internal/config"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/auth"
)

// CreateDefaultData creates the administrator account and, when enabled,
// a handful of sample clubs and events. Safe to run on every start.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, cfg *config.Config, lgr zerolog.Logger) error {
	userRepo := appRepos.NewUserRepository(dbPool)

	lgr.Info().Msg("Checking/Creating default data...")
	var finalErr error // errors are collected, seeding keeps going

	adminID, err := ensureAdmin(ctx, userRepo, cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating admin user")
		finalErr = errors.Join(finalErr, err)
	}

	if cfg.Seed.SampleData && adminID > 0 {
		if err := createSampleData(ctx, dbPool, adminID, lgr); err != nil {
			lgr.Error().Err(err).Msg("Error creating sample data")
			finalErr = errors.Join(finalErr, err)
		}
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}

func ensureAdmin(ctx context.Context, userRepo *appRepos.UserRepository, cfg *config.Config, lgr zerolog.Logger) (int64, error) {
	existing, err := userRepo.GetByEmail(ctx, cfg.Seed.AdminEmail)
	if err == nil {
		lgr.Info().Int64("adminID", existing.ID).Msg("Admin user already exists, skipping creation")
		return existing.ID, nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return 0, err
	}

	if cfg.Seed.AdminPassword == "" {
		lgr.Warn().Msg("SEED_ADMIN_PASSWORD not set, admin user not created")
		return 0, nil
	}

	hash, err := auth.HashPassword(cfg.Seed.AdminPassword)
	if err != nil {
		return 0, err
	}

	admin := &appModels.User{
		Email:          cfg.Seed.AdminEmail,
		PasswordHash:   hash,
		EmailConfirmed: true,
		FirstName:      "System",
		LastName:       "Administrator",
		UserType:       appModels.UserTypeAdmin,
		IsActive:       true,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		return 0, err
	}
	lgr.Info().Int64("adminID", admin.ID).Msg("Default admin user created successfully")
	return admin.ID, nil
}

func createSampleData(ctx context.Context, dbPool *pgxpool.Pool, adminID int64, lgr zerolog.Logger) error {
	eventRepo := appRepos.NewEventRepository(dbPool)
	clubRepo := appRepos.NewClubRepository(dbPool)

	count, err := eventRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		lgr.Info().Int64("events", count).Msg("Events already present, skipping sample data")
		return nil
	}

	var finalErr error
	clubs := []*appModels.Club{
		{ClubName: "Photography Club", Description: "Weekly photo walks around campus", IsActive: true},
		{ClubName: "Volunteers Society", Description: "Community service and volunteering", IsActive: true},
		{ClubName: "Robotics Club", Description: "Build and program robots", IsActive: true},
	}
	for _, club := range clubs {
		if err := clubRepo.Create(ctx, club); err != nil {
			finalErr = errors.Join(finalErr, err)
		}
	}

	// Bir hafta sonrasından itibaren haftalık etkinlikler
	base := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 7).Add(10 * time.Hour)
	events := []*appModels.Event{
		{Title: "Campus Cleanup", Description: "Help keep the campus green", Venue: "Main Gate",
			EventType: appModels.EventTypeVolunteer, MaxCapacity: 50, VolunteerHours: 3, EventDate: base},
		{Title: "Intro to Go Workshop", Description: "Hands-on session for beginners", Venue: "Lab B-204",
			EventType: appModels.EventTypeWorkshop, MaxCapacity: 30, EventDate: base.AddDate(0, 0, 7)},
		{Title: "Career Seminar", Description: "Alumni share their career paths", Venue: "Conference Hall",
			EventType: appModels.EventTypeSeminar, MaxCapacity: 200, EventDate: base.AddDate(0, 0, 14)},
		{Title: "Spring Football Cup", Description: "Inter-department tournament", Venue: "Sports Field",
			EventType: appModels.EventTypeSports, MaxCapacity: 120, EventDate: base.AddDate(0, 0, 21)},
	}
	for _, event := range events {
		event.CreatedBy = adminID
		event.IsApproved = true
		event.Secret = appModels.NewEventSecret()
		if err := eventRepo.Create(ctx, event); err != nil {
			finalErr = errors.Join(finalErr, err)
		}
	}

	lgr.Info().Int("clubs", len(clubs)).Int("events", len(events)).Msg("Sample data created")
	return finalErr
}
