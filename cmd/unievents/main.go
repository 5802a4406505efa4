package main

import (
	"github.com/joho/godotenv"
	"github.com/yigit/unievents/cmd/unievents/cmd"
)

// @title UniEvents API
// @version 1.0
// @description API for the UniEvents university event platform
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@unievents.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	// .env is optional, real environment variables win
	_ = godotenv.Load()

	cmd.Execute()
}
