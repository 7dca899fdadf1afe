package config

import (
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func Config(key string) string {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}

	return os.Getenv(key)
}

// AssistantProfileID returns the injected identity the assistant speaks
// as. Send paths must never embed this id as a literal.
func AssistantProfileID() (uuid.UUID, error) {
	return uuid.Parse(Config("ASSISTANT_PROFILE_ID"))
}
