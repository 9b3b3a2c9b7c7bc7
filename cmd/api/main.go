package main

import (
	"fmt"
	"net/http"

	"github.com/Cryptobal/opai-sub012/internal/config"
	appHTTP "github.com/Cryptobal/opai-sub012/internal/handler/http"
	"github.com/Cryptobal/opai-sub012/internal/pkg/database"
	"github.com/Cryptobal/opai-sub012/internal/pkg/jwt"
	"github.com/Cryptobal/opai-sub012/internal/repository/postgresql"
	advanceService "github.com/Cryptobal/opai-sub012/internal/service/advance"
	attendanceService "github.com/Cryptobal/opai-sub012/internal/service/attendance"
	exportService "github.com/Cryptobal/opai-sub012/internal/service/export"
	legalParamsService "github.com/Cryptobal/opai-sub012/internal/service/legalparams"
	payslipService "github.com/Cryptobal/opai-sub012/internal/service/payslip"
	salaryService "github.com/Cryptobal/opai-sub012/internal/service/salary"
	settlementService "github.com/Cryptobal/opai-sub012/internal/service/settlement"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL(), int32(cfg.Database.MaxConns), int32(cfg.Database.MinConns))
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	snapshotRepo := postgresql.NewSnapshotRepository(db)
	structureRepo := postgresql.NewStructureRepository(db)
	bonusRepo := postgresql.NewBonusRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	guardRepo := postgresql.NewGuardRepository(db)
	runRepo := postgresql.NewRunRepository(db)
	settlementRepo := postgresql.NewSettlementRepository(db)
	advanceRepo := postgresql.NewAdvanceRepository(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret)
	logger := appHTTP.NewLogger("opai-payroll", cfg.App.Env)

	legalParamsSvc := legalParamsService.NewService(db, snapshotRepo)
	salarySvc := salaryService.NewService(db, structureRepo, bonusRepo)
	attendanceSvc := attendanceService.NewService(db, attendanceRepo)
	payslipSvc := payslipService.NewService(snapshotRepo, attendanceRepo, salarySvc)
	settlementSvc := settlementService.NewService(
		db,
		runRepo,
		settlementRepo,
		snapshotRepo,
		guardRepo,
		advanceRepo,
		payslipSvc,
		cfg.Batch.Workers,
		logger,
	)
	advanceSvc := advanceService.NewService(db, advanceRepo, guardRepo, salarySvc)
	exportSvc := exportService.NewService(runRepo, settlementRepo, guardRepo)

	legalParamsHandler := appHTTP.NewLegalParamsHandler(legalParamsSvc)
	salaryHandler := appHTTP.NewSalaryHandler(salarySvc)
	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	simulationHandler := appHTTP.NewSimulationHandler(payslipSvc)
	settlementHandler := appHTTP.NewSettlementHandler(settlementSvc)
	advanceHandler := appHTTP.NewAdvanceHandler(advanceSvc)
	exportHandler := appHTTP.NewExportHandler(exportSvc)

	router := appHTTP.NewRouter(
		logger,
		jwtService,
		legalParamsHandler,
		salaryHandler,
		attendanceHandler,
		simulationHandler,
		settlementHandler,
		advanceHandler,
		exportHandler,
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
