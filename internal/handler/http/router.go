package http

import (
	"log/slog"
	"os"

	"github.com/Cryptobal/opai-sub012/internal/handler/http/middleware"
	"github.com/Cryptobal/opai-sub012/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewLogger(appName, env string) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(false)
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", appName),
		slog.String("version", "v1.0.0"),
		slog.String("env", env),
	)
}

func NewRouter(
	logger *slog.Logger,
	jwtService jwt.Service,
	legalParamsHandler LegalParamsHandler,
	salaryHandler SalaryHandler,
	attendanceHandler AttendanceHandler,
	simulationHandler SimulationHandler,
	settlementHandler SettlementHandler,
	advanceHandler AdvanceHandler,
	exportHandler ExportHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "X-Omission-Count"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/legal-parameters", func(r chi.Router) {
				r.Post("/", legalParamsHandler.Import)
				r.Get("/", legalParamsHandler.List)
				r.Get("/resolve", legalParamsHandler.Resolve)
				r.Get("/{id}", legalParamsHandler.Get)
			})

			r.Route("/salary-structures", func(r chi.Router) {
				r.Post("/", salaryHandler.CreateStructure)
				r.Get("/", salaryHandler.ListStructures)
				r.Get("/{id}", salaryHandler.GetStructure)
			})

			r.Route("/bonuses", func(r chi.Router) {
				r.Post("/", salaryHandler.CreateBonus)
				r.Get("/", salaryHandler.ListBonuses)
				r.Put("/{id}", salaryHandler.UpdateBonus)
				r.Delete("/assignments/{id}", salaryHandler.RemoveAssignment)
			})

			r.Route("/guards/{guardID}", func(r chi.Router) {
				r.Post("/bonuses", salaryHandler.AssignBonus)
				r.Get("/attendance", attendanceHandler.GetFact)
				r.Get("/settlements", settlementHandler.ListByGuard)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/", attendanceHandler.Import)
				r.Post("/batch", attendanceHandler.ImportBatch)
				r.Get("/", attendanceHandler.ListByPeriod)
			})

			r.Route("/simulations", func(r chi.Router) {
				r.Post("/", simulationHandler.Simulate)
				r.Post("/guard", simulationHandler.SimulateGuard)
			})

			r.Route("/runs", func(r chi.Router) {
				r.Post("/", settlementHandler.OpenRun)
				r.Get("/", settlementHandler.ListRuns)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", settlementHandler.GetRun)
					r.Post("/compute", settlementHandler.ComputeRun)
					r.Post("/transition", settlementHandler.TransitionRun)
					r.Get("/settlements", settlementHandler.ListByRun)
					r.Route("/exports/{kind}", func(r chi.Router) {
						r.Get("/", exportHandler.Download)
						r.Get("/report", exportHandler.Report)
					})
				})
			})

			r.Route("/settlements/{id}", func(r chi.Router) {
				r.Get("/", settlementHandler.GetSettlement)
				r.Post("/correct", settlementHandler.Correct)
				r.Get("/payslip.pdf", settlementHandler.Payslip)
			})

			r.Route("/advances", func(r chi.Router) {
				r.Post("/", advanceHandler.CreateProcess)
				r.Get("/", advanceHandler.ListProcesses)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", advanceHandler.GetProcess)
					r.Post("/populate", advanceHandler.PopulateItems)
					r.Post("/items", advanceHandler.AddItem)
					r.Post("/transition", advanceHandler.Transition)
				})
			})

			r.Delete("/advance-items/{itemID}", advanceHandler.RemoveItem)
		})
	})

	return r
}
