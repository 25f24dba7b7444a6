package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/zerotouch/onboard/internal/calendar"
	"github.com/zerotouch/onboard/internal/config"
	internal_http "github.com/zerotouch/onboard/internal/http"
	"github.com/zerotouch/onboard/internal/llm"
	"github.com/zerotouch/onboard/internal/log"
	"github.com/zerotouch/onboard/internal/rag"
	internal_storage "github.com/zerotouch/onboard/internal/storage"
	"github.com/zerotouch/onboard/internal/templates"
	"github.com/zerotouch/onboard/pkg/service"
	"github.com/zerotouch/onboard/pkg/storage"
)

func SetupCLI(rootCmd *cobra.Command) {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the onboarding API server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(cmd)
			store := initStore(cfg.DBConnStr)
			defer store.Close()
			if cfg.SeedData {
				if err := templates.Seed(store); err != nil {
					log.GetLogger().Errorf("Failed to seed reference data: %v", err)
					os.Exit(1)
				}
			}
			svcs := buildServices(store, cfg)
			if err := internal_http.StartServer(cfg.Port, svcs); err != nil {
				log.GetLogger().Errorf("Server stopped: %v", err)
				os.Exit(1)
			}
		},
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed jurisdiction templates and policy chunks",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(cmd)
			store := initStore(cfg.DBConnStr)
			defer store.Close()
			if err := templates.Seed(store); err != nil {
				log.GetLogger().Errorf("Failed to seed reference data: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to seed reference data: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Seeded jurisdiction templates and policy chunks\n")
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List employees and their onboarding status",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(cmd)
			store := initStore(cfg.DBConnStr)
			defer store.Close()
			svc := service.NewEmployeeService(store, log.GetLogger())
			listEmployees(svc)
		},
	}

	startCmd := &cobra.Command{
		Use:   "start [employee-id]",
		Short: "Create and run an onboarding workflow for an employee",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id := parseID(args[0])
			cfg := loadConfig(cmd)
			store := initStore(cfg.DBConnStr)
			defer store.Close()
			svcs := buildServices(store, cfg)
			workflow, err := svcs.Workflows.Create(id)
			if err != nil {
				log.GetLogger().Errorf("Failed to create workflow: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to create workflow: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Created workflow %d for employee %d, running...\n", workflow.ID, id)
			if err := svcs.Workflows.Run(context.Background(), workflow.ID); err != nil {
				log.GetLogger().Errorf("Workflow run failed: %v", err)
				fmt.Fprintf(os.Stderr, "Error: workflow run failed: %v\n", err)
				os.Exit(1)
			}
			printStatus(svcs.Workflows, id)
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status [employee-id]",
		Short: "Show the latest onboarding workflow for an employee",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id := parseID(args[0])
			cfg := loadConfig(cmd)
			store := initStore(cfg.DBConnStr)
			defer store.Close()
			svcs := buildServices(store, cfg)
			printStatus(svcs.Workflows, id)
		},
	}

	approveCmd := &cobra.Command{
		Use:   "approve [approval-id]",
		Short: "Approve a pending document",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id := parseID(args[0])
			reviewer, _ := cmd.Flags().GetString("reviewer")
			comments, _ := cmd.Flags().GetString("comments")
			cfg := loadConfig(cmd)
			store := initStore(cfg.DBConnStr)
			defer store.Close()
			svcs := buildServices(store, cfg)
			resumed, err := svcs.Approvals.Approve(id, reviewer, comments)
			if err != nil {
				log.GetLogger().Errorf("Failed to approve: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to approve: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Approved request %d\n", id)
			if resumed {
				fmt.Fprintf(os.Stdout, "All approvals cleared, workflow resuming\n")
				// give the background continuation a moment before the
				// process-scoped store closes
				time.Sleep(200 * time.Millisecond)
			}
		},
	}
	approveCmd.Flags().String("reviewer", "cli", "Reviewer identity recorded on the decision")
	approveCmd.Flags().String("comments", "", "Review comments")

	rootCmd.AddCommand(serveCmd, seedCmd, listCmd, startCmd, statusCmd, approveCmd)
}

// buildServices wires the collaborators and services the way the server and
// CLI both need them, including the approve-to-run continuation hook.
func buildServices(store storage.Store, cfg config.Config) internal_http.Services {
	logger := log.GetLogger()

	client, err := llm.NewClient(llm.Config{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey,
		Model:    cfg.LLMModel,
	})
	if err != nil {
		logger.Errorf("Failed to initialize LLM client: %v", err)
		os.Exit(1)
	}
	retriever := rag.NewStoreRetriever(store)
	scheduler := calendar.NewMockScheduler()
	tmpl := templates.NewStore(store)

	approvals := service.NewApprovalService(store, logger)
	executor := service.NewExecutor(store, client, retriever, scheduler, tmpl, approvals, logger)
	workflows := service.NewWorkflowService(store, executor, logger)
	workflows.SetPollInterval(cfg.PollInterval)
	approvals.SetResumer(workflows.Resumer())

	return internal_http.Services{
		Employees: service.NewEmployeeService(store, logger),
		Workflows: workflows,
		Approvals: approvals,
		Documents: service.NewDocumentService(store, logger),
	}
}

func listEmployees(svc *service.EmployeeService) {
	employees, err := svc.List()
	if err != nil {
		log.GetLogger().Errorf("Failed to list employees: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to list employees: %v\n", err)
		os.Exit(1)
	}
	if len(employees) == 0 {
		fmt.Fprintf(os.Stdout, "No employees found.\n")
		return
	}
	fmt.Fprintf(os.Stdout, "Employees:\n")
	for _, e := range employees {
		fmt.Fprintf(os.Stdout, "- ID: %d, Name: %s, Role: %s, Status: %s, Start: %s\n",
			e.ID, e.Name, e.Role, e.Status, e.StartDate.Format("2006-01-02"))
	}
}

func printStatus(svc *service.WorkflowService, employeeID int64) {
	workflow, err := svc.LatestByEmployee(employeeID)
	if err != nil {
		log.GetLogger().Errorf("Failed to load workflow: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to load workflow: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, "Workflow %d: %s\n", workflow.ID, workflow.Status)
	if workflow.ErrorMsg != "" {
		fmt.Fprintf(os.Stdout, "Error: %s\n", workflow.ErrorMsg)
	}
	for _, step := range workflow.Steps {
		fmt.Fprintf(os.Stdout, "  %2d. %-22s %s\n", step.StepOrder, step.Kind, step.Status)
	}
}

func parseID(arg string) int64 {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid id %q\n", arg)
		os.Exit(1)
	}
	return id
}

func loadConfig(cmd *cobra.Command) config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.GetLogger().Errorf("Invalid configuration: %v", err)
		os.Exit(1)
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.DBConnStr = db
	}
	return cfg
}

func initStore(dbConnStr string) *internal_storage.PostgresStore {
	if dbConnStr == "" {
		fmt.Fprintln(os.Stderr, "Error: database connection string required (--db flag or DB_* env vars)")
		os.Exit(1)
	}
	store, err := internal_storage.NewPostgresStore(dbConnStr)
	if err != nil {
		log.GetLogger().Errorf("Failed to initialize store: %v", err)
		os.Exit(1)
	}
	return store
}
