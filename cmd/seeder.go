package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/jobly/internal/auth"
	jobmodel "github.com/frahmantamala/jobly/internal/core/datamodel/job"
	promotionmodel "github.com/frahmantamala/jobly/internal/core/datamodel/promotion"
	usermodel "github.com/frahmantamala/jobly/internal/core/datamodel/user"
	"github.com/frahmantamala/jobly/internal/core/user"
)

const seedPassword = "password"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed users, jobs and promotion packages for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := setup()
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			if err := clearSeedData(db); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		hash, err := auth.HashPassword(seedPassword, cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		if err := db.Transaction(func(tx *gorm.DB) error {
			return seed(tx, hash)
		}); err != nil {
			log.Fatalf("seeding failed: %v", err)
		}

		fmt.Println("Seeding complete. All users share the password:", seedPassword)
	},
}

func seed(tx *gorm.DB, hash string) error {
	users := []usermodel.User{
		{Email: "recruiter@jobly.dev", FullName: "Rafi Recruiter", Phone: "01700000001", Role: string(user.RoleRecruiter)},
		{Email: "seeker@jobly.dev", FullName: "Sadia Seeker", Phone: "01700000002", Role: string(user.RoleSeeker)},
		{Email: "admin@jobly.dev", FullName: "Jobly Admin", Role: string(user.RoleSeeker), IsStaff: true},
	}

	ids := make(map[string]int64, len(users))
	for _, u := range users {
		u.PasswordHash = hash
		u.IsActive = true
		if err := tx.Where(usermodel.User{Email: u.Email}).FirstOrCreate(&u).Error; err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		ids[u.Email] = u.ID
		fmt.Println("Seeded user:", u.Email)
	}

	packages := []promotionmodel.Package{
		{Name: "Basic", Description: "Featured for one week", Price: decimal.RequireFromString("500.00"), DurationDays: 7, FeaturedPosition: 3},
		{Name: "Standard", Description: "Featured for two weeks", Price: decimal.RequireFromString("900.00"), DurationDays: 14, FeaturedPosition: 2},
		{Name: "Premium", Description: "Top placement for a month", Price: decimal.RequireFromString("1500.00"), DurationDays: 30, FeaturedPosition: 1},
	}
	for _, p := range packages {
		p.IsActive = true
		if err := tx.Where(promotionmodel.Package{Name: p.Name}).FirstOrCreate(&p).Error; err != nil {
			return fmt.Errorf("seed package %s: %w", p.Name, err)
		}
		fmt.Println("Seeded promotion package:", p.Name)
	}

	recruiterID := ids["recruiter@jobly.dev"]
	lapsed := time.Now().UTC().Add(-24 * time.Hour)
	jobs := []jobmodel.Job{
		{RecruiterID: recruiterID, Title: "Backend Engineer (Go)", CompanyName: "Jobly Labs"},
		{RecruiterID: recruiterID, Title: "Frontend Engineer", CompanyName: "Jobly Labs"},
		// promotion already over, picked up by the sweeper
		{RecruiterID: recruiterID, Title: "Data Analyst", CompanyName: "Jobly Labs", IsPromoted: true, PromotedUntil: &lapsed},
	}
	for _, j := range jobs {
		if err := tx.Where(jobmodel.Job{RecruiterID: j.RecruiterID, Title: j.Title}).FirstOrCreate(&j).Error; err != nil {
			return fmt.Errorf("seed job %s: %w", j.Title, err)
		}
		fmt.Println("Seeded job:", j.Title)
	}

	return nil
}

func clearSeedData(db *gorm.DB) error {
	// children first; payment_logs cascades from payment_transactions
	for _, table := range []string{"payment_transactions", "jobs", "promotion_packages", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
