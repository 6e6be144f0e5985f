package api

import (
	"database/sql"
	stdhttp "net/http"
	"strings"
	"time"

	"tourbook/internal/config"
	"tourbook/internal/domain/models"
	h "tourbook/internal/http/handlers"
	"tourbook/internal/http/middleware"
	"tourbook/internal/http/render"
	"tourbook/internal/mail"
	"tourbook/internal/query"
	"tourbook/internal/repositories"
	"tourbook/internal/services"
	"tourbook/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires repositories, the auth gate and every route group.
func NewRouter(env config.Env, db *sql.DB, mailer mail.Mailer) *gin.Engine {
	render.SetMode(env.Production())

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), corsMiddleware(env))

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.Log.Warnf("failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"status":  "fail",
			"message": "Can't find " + c.Request.URL.Path + " on this server",
		})
	})

	toursRepo := repositories.ToursRepository{DB: db}
	usersRepo := repositories.UsersRepository{DB: db}
	reviewsRepo := repositories.ReviewsRepository{DB: db}
	bookingsRepo := repositories.BookingsRepository{DB: db}

	gate := middleware.AuthGate{Users: usersRepo, Secret: []byte(env.JWTSecret)}
	ratings := services.RatingService{Reviews: reviewsRepo, Tours: toursRepo}

	ah := h.AuthHandlers{Users: usersRepo, Mailer: mailer, Env: env}
	uh := h.UserHandlers{Users: usersRepo}
	th := h.TourHandlers{Tours: toursRepo}
	rh := h.ReviewHandlers{Reviews: reviewsRepo, Ratings: ratings}
	bh := h.BookingHandlers{Bookings: bookingsRepo}

	api := r.Group("/api/v1")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)

		tours := api.Group("/tours")
		{
			tours.GET("", gate.OptionalAuth(), h.GetAll[models.Tour](toursRepo, th.ListBase))
			tours.GET("/top-5-cheap", gate.OptionalAuth(), th.AliasTopTours,
				h.GetAll[models.Tour](toursRepo, th.ListBase))
			tours.GET("/stats", th.Stats)
			tours.GET("/monthly-plan/:year", gate.Protect(),
				gate.RestrictTo(models.RoleAdmin, models.RoleLeadGuide, models.RoleGuide),
				th.MonthlyPlan)

			tours.POST("", gate.Protect(), gate.RestrictTo(models.RoleAdmin, models.RoleLeadGuide),
				h.CreateOne[models.Tour](toursRepo))
			tours.GET("/:id", h.GetOne[models.Tour](toursRepo))
			tours.PATCH("/:id", gate.Protect(), gate.RestrictTo(models.RoleAdmin, models.RoleLeadGuide),
				h.UpdateOne[models.Tour](toursRepo))
			tours.DELETE("/:id", gate.Protect(), gate.RestrictTo(models.RoleAdmin, models.RoleLeadGuide),
				h.DeleteOne[models.Tour](toursRepo))

			// nested reviews of one tour
			tours.GET("/:id/reviews", h.GetAll[models.Review](reviewsRepo, rh.NestedBase))
			tours.POST("/:id/reviews", gate.Protect(), gate.RestrictTo(models.RoleUser), rh.Create)
		}

		users := api.Group("/users")
		{
			users.POST("/signup", ah.Signup)
			users.POST("/login", ah.Login)
			users.GET("/logout", ah.Logout)
			users.POST("/forgotPassword", ah.ForgotPassword)
			users.PATCH("/resetPassword/:token", ah.ResetPassword)

			me := users.Group("", gate.Protect())
			{
				me.PATCH("/updateMyPassword", ah.UpdatePassword)
				me.GET("/me", uh.Me)
				me.PATCH("/updateMe", uh.UpdateMe)
				me.DELETE("/deleteMe", uh.DeleteMe)
			}

			admin := users.Group("", gate.Protect(), gate.RestrictTo(models.RoleAdmin))
			{
				admin.GET("", h.GetAll[models.User](usersRepo, func(*gin.Context) []query.Filter {
					return usersRepo.ActiveOnly()
				}))
				admin.POST("", h.CreateOne[models.User](usersRepo))
				admin.GET("/:id", h.GetOne[models.User](usersRepo))
				admin.PATCH("/:id", h.UpdateOne[models.User](usersRepo))
				admin.DELETE("/:id", h.DeleteOne[models.User](usersRepo))
			}
		}

		reviews := api.Group("/reviews")
		{
			reviews.GET("", h.GetAll[models.Review](reviewsRepo))
			reviews.GET("/:id", h.GetOne[models.Review](reviewsRepo))
			reviews.POST("", gate.Protect(), gate.RestrictTo(models.RoleUser), rh.Create)
			reviews.PATCH("/:id", gate.Protect(), gate.RestrictTo(models.RoleUser, models.RoleAdmin), rh.Update)
			reviews.DELETE("/:id", gate.Protect(), gate.RestrictTo(models.RoleUser, models.RoleAdmin), rh.Delete)
		}

		bookings := api.Group("/bookings", gate.Protect())
		{
			bookings.GET("/my", h.GetAll[models.Booking](bookingsRepo, bh.MyBase))
			bookings.GET("/:id/invoice", bh.Invoice)

			manage := bookings.Group("", gate.RestrictTo(models.RoleAdmin, models.RoleLeadGuide))
			{
				manage.GET("", h.GetAll[models.Booking](bookingsRepo))
				manage.POST("", h.CreateOne[models.Booking](bookingsRepo))
				manage.GET("/:id", h.GetOne[models.Booking](bookingsRepo))
				manage.PATCH("/:id", h.UpdateOne[models.Booking](bookingsRepo))
				manage.DELETE("/:id", h.DeleteOne[models.Booking](bookingsRepo))
			}
		}
	}

	return r
}

func corsMiddleware(env config.Env) gin.HandlerFunc {
	origins := []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"http://localhost:5173",
		"http://127.0.0.1:5173",
	}
	if env.CORSAllowedOrigins != "" {
		origins = origins[:0]
		for _, o := range strings.Split(env.CORSAllowedOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	})
}
