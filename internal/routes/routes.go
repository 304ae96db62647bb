package routes

import (
	"github.com/2002jaebin-rgb/PTLog/internal/config"
	"github.com/2002jaebin-rgb/PTLog/internal/handlers"
	"github.com/2002jaebin-rgb/PTLog/internal/middleware"
	"github.com/2002jaebin-rgb/PTLog/internal/models"
	"github.com/2002jaebin-rgb/PTLog/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, logger *zap.Logger) {
	store := services.NewPostgresStore(db)

	scheduleService := services.NewScheduleService(store, cfg.Grid, cfg.Location, logger.Named("schedule"))
	reservationService := services.NewReservationService(store, cfg.Location, logger.Named("reservations"))
	workoutService := services.NewWorkoutLogService(store, cfg.Location, logger.Named("workouts"))
	memberService := services.NewMemberService(store)

	scheduleHandler := handlers.NewScheduleHandler(scheduleService, cfg.Location)
	reservationHandler := handlers.NewReservationHandler(reservationService)
	workoutHandler := handlers.NewWorkoutHandler(workoutService)
	memberHandler := handlers.NewMemberHandler(memberService)

	trainerOnly := middleware.RequireRole(models.RoleTrainer)
	memberOnly := middleware.RequireRole(models.RoleMember)

	api := app.Group("/api/v1", middleware.AuthRequired(cfg.JWTSecret))

	schedule := api.Group("/schedule")
	schedule.Get("/week", scheduleHandler.GetWeek)
	schedule.Post("/preview", trainerOnly, scheduleHandler.Preview)
	schedule.Post("/sessions", trainerOnly, scheduleHandler.Publish)
	schedule.Delete("/sessions", trainerOnly, scheduleHandler.DeleteSessions)

	reservations := api.Group("/reservations")
	reservations.Get("", reservationHandler.List)
	reservations.Post("", memberOnly, reservationHandler.Create)
	reservations.Post("/:id/accept", trainerOnly, reservationHandler.Accept)
	reservations.Post("/:id/reject", trainerOnly, reservationHandler.Reject)

	workouts := api.Group("/workouts")
	workouts.Get("/loggable", trainerOnly, workoutHandler.ListLoggable)
	workouts.Post("", trainerOnly, workoutHandler.Log)
	workouts.Post("/:id/accept", memberOnly, workoutHandler.Accept)

	members := api.Group("/members")
	members.Get("", trainerOnly, memberHandler.List)
	members.Get("/:id/workouts", workoutHandler.ListMemberLogs)
}
