package webserver

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/asteroid-bot/asteroid/src/asteroid/config"
)

func attachRoutes(r *gin.Engine, cfg config.Config, db *gorm.DB) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	boardH := NewBoards(db)
	adminH := NewAdmin(db, []byte(cfg.JWTSecret), cfg.AdminToken)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/token", adminH.Token)

		v1.GET("/boards/:guild", boardH.Stats)
		v1.GET("/boards/:guild/awarded", boardH.Awarded)
		v1.GET("/boards/:guild/random", boardH.Random)

		admin := v1.Group("/admin")
		admin.Use(JWTMiddleware([]byte(cfg.JWTSecret)))
		{
			admin.PUT("/boards/:guild", adminH.SetConfig)
			admin.DELETE("/boards/:guild", adminH.Unset)
		}
	}
}
