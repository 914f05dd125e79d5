package main

import (
	"fmt"
	"os"

	"github.com/bdobrica/Hibiki/common/environment"
	"github.com/bdobrica/Hibiki/common/version"
	"github.com/bdobrica/Hibiki/internal/hibiki/app"
	"github.com/bdobrica/Hibiki/internal/hibiki/matrix"
)

func main() {
	fmt.Printf("Hibiki Dialogue Engine\n")
	fmt.Printf("Version: %s\n", version.Version)
	fmt.Printf("Commit: %s\n", version.GitCommit)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Println()

	// Load configuration from environment
	config := loadConfig()

	// Validate required configuration
	if config.Matrix.Homeserver == "" {
		fmt.Fprintf(os.Stderr, "Error: MATRIX_HOMESERVER is required\n")
		os.Exit(1)
	}
	if config.Matrix.UserID == "" {
		fmt.Fprintf(os.Stderr, "Error: MATRIX_USER_ID is required\n")
		os.Exit(1)
	}
	if config.Matrix.AccessToken == "" {
		fmt.Fprintf(os.Stderr, "Error: MATRIX_ACCESS_TOKEN is required\n")
		os.Exit(1)
	}

	// Create application
	hibiki, err := app.New(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize Hibiki: %v\n", err)
		os.Exit(1)
	}
	defer hibiki.Stop()

	// Run application
	if err := hibiki.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running Hibiki: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration from environment variables
func loadConfig() *app.Config {
	return &app.Config{
		DatabasePath: environment.StringOr("DATABASE_PATH", "./hibiki.db"),
		Matrix: matrix.Config{
			Homeserver:  environment.StringOr("MATRIX_HOMESERVER", ""),
			UserID:      environment.StringOr("MATRIX_USER_ID", ""),
			AccessToken: environment.StringOr("MATRIX_ACCESS_TOKEN", ""),
			Rooms:       environment.StringSliceOr("MATRIX_ROOMS", nil),
		},
		WitToken:          environment.StringOr("WIT_TOKEN", ""),
		OpenAIAPIKey:      environment.StringOr("OPENAI_API_KEY", ""),
		GenericModel:      environment.StringOr("GENERIC_MODEL", ""),
		WeatherAPIKey:     environment.StringOr("WEATHER_API_KEY", ""),
		NewsAPIKey:        environment.StringOr("NEWS_API_KEY", ""),
		WolframAppID:      environment.StringOr("WOLFRAMALPHA_APP_ID", ""),
		SpoonacularAPIKey: environment.StringOr("SPOONACULAR_API_KEY", ""),
		NutritionixAppID:  environment.StringOr("NUTRITIONIX_APP_ID", ""),
		NutritionixAPIKey: environment.StringOr("NUTRITIONIX_API_KEY", ""),
		SessionTTL:        environment.DurationOr("SESSION_TTL", 0),
	}
}
