package main

import (
	"github.com/cppla/seoblog/config"
	"github.com/cppla/seoblog/models"
	"github.com/cppla/seoblog/routes"
	"github.com/cppla/seoblog/tasks"
	"github.com/cppla/seoblog/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Category{}, &models.Tag{}, &models.Blog{})

	r := routes.SetupRouter(db)

	// Keep the home feed cache warm in the background (best-effort).
	tasks.StartFeedWarmer(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
