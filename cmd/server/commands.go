package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"etech-backend/internal/bills"
	"etech-backend/internal/database"
	"etech-backend/internal/events"
	"etech-backend/internal/jobs"
	"etech-backend/internal/live"
	"etech-backend/internal/models"
	"etech-backend/internal/users"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()
		log.Info("schema up to date")
		return nil
	},
}

var adminEmail, adminName, adminPassword string

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		u, err := users.Create(cmd.Context(), database.DB, users.NewUser{
			DisplayName: adminName,
			Email:       adminEmail,
			Password:    adminPassword,
			Role:        models.RoleAdmin,
		})
		if err != nil {
			return err
		}
		log.Info("admin created", zap.String("user_id", u.ID), zap.String("email", u.Email))
		return nil
	},
}

var jobName string

var cronCmd = &cobra.Command{
	Use:   "cron",
	Short: "Run the job scheduler, or a single job with --job",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		// jobs only read, nothing to notify or publish
		billSvc := bills.NewService(database.DB, live.NewHub(), events.NopPublisher{}, log)
		s := jobs.NewScheduler(log)
		for _, j := range []jobs.Job{
			jobs.NewLowStockJob(cfg.CronLowStock, database.DB, cfg.LowStockThreshold, log),
			jobs.NewOverdueBillsJob(cfg.CronOverdueBills, billSvc, log),
		} {
			if err := s.Register(j); err != nil {
				return err
			}
		}

		if jobName != "" {
			return s.RunOnce(cmd.Context(), jobName)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s.Start()
		log.Info("scheduler started", zap.Strings("jobs", s.Names()))
		<-ctx.Done()
		<-s.Stop().Done()
		log.Info("scheduler stopped")
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin e-mail")
	createAdminCmd.Flags().StringVar(&adminName, "name", "", "display name")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "password")
	createAdminCmd.MarkFlagRequired("email")
	createAdminCmd.MarkFlagRequired("name")
	createAdminCmd.MarkFlagRequired("password")

	cronCmd.Flags().StringVarP(&jobName, "job", "j", "", fmt.Sprintf("run one job and exit (%s, %s)", jobs.LowStockJob, jobs.OverdueBillsJob))
}

