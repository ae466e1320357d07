package main

import (
	"log"
	"os"

	"github.com/Mzhdi/Nounou-sub000/config"
	"github.com/Mzhdi/Nounou-sub000/pkg/logger"
	"github.com/Mzhdi/Nounou-sub000/routes"
	"github.com/Mzhdi/Nounou-sub000/utils"
)

func main() {
	appLog, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer appLog.Sync()

	config.InitDB()
	utils.InitS3()

	r := routes.SetupRouter(config.DB, appLog)
	if err := r.Run(":8080"); err != nil {
		appLog.Fatal("server stopped", "err", err)
	}
}
