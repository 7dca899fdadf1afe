package database

import (
	"fmt"
	"log"

	config "github.com/driftchat/chat_backend/configs"
	"github.com/driftchat/chat_backend/models"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:            false,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.UserAccount{},
		&models.UserProfile{},
		&models.Conversation{},
		&models.Message{},
		&models.UserConversationStatus{},
		&models.FileAsset{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

// SeedAssistant makes sure the assistant identity from
// ASSISTANT_PROFILE_ID exists as a real profile row, so messages sent
// on the assistant's behalf always have a valid sender link.
func SeedAssistant() {
	assistantID, err := config.AssistantProfileID()
	if err != nil {
		log.Println("⚠️ ASSISTANT_PROFILE_ID not set or invalid, skipping assistant seed")
		return
	}

	var count int64
	if err := DB.Model(&models.UserProfile{}).Where("id = ?", assistantID).Count(&count).Error; err != nil {
		log.Fatalf("🔥 Failed to check for assistant profile: %v", err)
		return
	}
	if count > 0 {
		log.Println("Assistant profile already exists.")
		return
	}

	assistantEmail := config.Config("ASSISTANT_EMAIL")
	if assistantEmail == "" {
		assistantEmail = "assistant@driftchat.local"
	}

	err = DB.Transaction(func(tx *gorm.DB) error {
		account := models.UserAccount{
			ID:       uuid.New(),
			Email:    assistantEmail,
			Password: "!", // not a loginable account
		}
		if err := tx.Create(&account).Error; err != nil {
			return err
		}

		profile := models.UserProfile{
			ID:          assistantID,
			UserID:      account.ID,
			DisplayName: "Assistant",
			IsActive:    true,
		}
		return tx.Create(&profile).Error
	})
	if err != nil {
		log.Fatalf("🔥 Failed to seed assistant profile: %v", err)
		return
	}

	log.Println("✅ Assistant profile seeded successfully")
}
