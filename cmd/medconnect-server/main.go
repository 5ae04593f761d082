package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/medconnect/medconnect/internal/config"
	"github.com/medconnect/medconnect/internal/domain/ambulance"
	"github.com/medconnect/medconnect/internal/domain/appointment"
	"github.com/medconnect/medconnect/internal/domain/doctor"
	"github.com/medconnect/medconnect/internal/domain/schedule"
	"github.com/medconnect/medconnect/internal/platform/auth"
	"github.com/medconnect/medconnect/internal/platform/db"
	"github.com/medconnect/medconnect/internal/platform/mongodb"
	"github.com/medconnect/medconnect/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medconnect-server",
		Short: "MedConnect booking API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(mongoCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the booking API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run PostgreSQL migrations",
	}

	// migrate up
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			migrator, closePool, err := openMigrator(ctx)
			if err != nil {
				return err
			}
			defer closePool()

			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	// migrate status
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			migrator, closePool, err := openMigrator(ctx)
			if err != nil {
				return err
			}
			defer closePool()

			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func openMigrator(ctx context.Context) (*db.Migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.StoreDriver != config.StoreDriverPostgres {
		return nil, nil, fmt.Errorf("migrations apply to STORE_DRIVER=%s only", config.StoreDriverPostgres)
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return db.NewMigrator(pool, migrations.FS), pool.Close, nil
}

func mongoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mongo",
		Short: "Manage the MongoDB store",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "indexes",
		Short: "Create collection indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.StoreDriver != config.StoreDriverMongo {
				return fmt.Errorf("indexes apply to STORE_DRIVER=%s only", config.StoreDriverMongo)
			}

			ctx := context.Background()
			store, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
			if err != nil {
				return err
			}
			defer store.Close(context.Background())

			if err := mongodb.EnsureIndexes(ctx,
				schedule.NewRepoMongo(store.DB, nil),
				appointment.NewRepoMongo(store.DB, nil),
				ambulance.NewRepoMongo(store.DB, nil),
				doctor.NewRepoMongo(store.DB, nil),
			); err != nil {
				return err
			}
			fmt.Printf("Indexes ensured on database %s.\n", cfg.MongoDatabase)
			return nil
		},
	})
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with AUTH_SIGNING_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("sub")
			email, _ := cmd.Flags().GetString("email")
			roles, _ := cmd.Flags().GetStringSlice("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if subject == "" {
				return fmt.Errorf("--sub is required")
			}
			for _, r := range roles {
				switch r {
				case auth.RolePatient, auth.RoleDoctor, auth.RoleAdmin:
				default:
					return fmt.Errorf("unknown role %q", r)
				}
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			token, err := auth.IssueToken([]byte(cfg.AuthSigningKey), auth.TokenRequest{
				Subject:  subject,
				Email:    strings.ToLower(email),
				Roles:    roles,
				Issuer:   cfg.AuthIssuer,
				Audience: cfg.AuthAudience,
				TTL:      ttl,
			})
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().String("sub", "", "Subject (patient id, doctor id or admin id)")
	cmd.Flags().String("email", "", "Email claim")
	cmd.Flags().StringSlice("role", []string{auth.RolePatient}, "Role claim, repeatable")
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	return cmd
}
