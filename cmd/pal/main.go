package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"pal/internal/assistant"
	"pal/internal/config"
	"pal/internal/db"
	"pal/internal/domain"
	"pal/internal/events"
	"pal/internal/ledger"
	"pal/internal/migrate"
	"pal/internal/orchestrator"
	"pal/internal/repo"
	"pal/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "pal",
	Short: "PAL business assistant CLI",
	Long: `PAL is a rule-based business assistant with a project orchestrator.
- chat: ask about sales, expenses, profits, projects, or tips
- command: create projects, assign tasks, check role progress
- wallet: import transfers and review income/spending KPIs
- serve: expose everything over an HTTP API`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("PAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("project", "", "active project id for commands")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("project"))
}

func registerCommands() {
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(commandCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(memberCmd())
	rootCmd.AddCommand(walletCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				eng := assistant.New()
				message := strings.TrimSpace(strings.Join(args, " "))
				var reply assistant.Reply
				if message == "" {
					reply = assistant.Reply{Text: eng.Greeting()}
				} else {
					reply = eng.Process(message)
				}
				now := time.Now().UTC().Format(time.RFC3339)
				if message != "" {
					_ = r.AppendChatMessage(ctx, "default", domain.ChatMessage{
						ID: uuid.NewString(), Sender: domain.SenderUser, Content: message, Timestamp: now,
					})
				}
				_ = r.AppendChatMessage(ctx, "default", domain.ChatMessage{
					ID: uuid.NewString(), Sender: domain.SenderPal, Content: reply.Text,
					Timestamp: now, SuggestedActions: reply.SuggestedActions,
				})
				w := events.Writer{DB: r.DB}
				_ = w.Append(ctx, "chat.message", "conversation", "default", map[string]any{"sender": domain.SenderUser})
				if viper.GetBool("json") {
					return printJSON(reply)
				}
				fmt.Println(reply.Text)
				for _, a := range reply.SuggestedActions {
					fmt.Printf("  · %s\n", a.Label)
				}
				return nil
			})
		},
	}
	cmd.AddCommand(chatLogCmd())
	return cmd
}

func chatLogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Show the saved conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				msgs, err := r.ChatLog(ctx, "default")
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(msgs)
				}
				for _, m := range msgs {
					fmt.Printf("[%s] %s: %s\n", m.Timestamp, m.Sender, m.Content)
				}
				return nil
			})
		},
	}
}

func commandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "command <text>",
		Short: "Run an orchestration command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInterpreter(cmd.Context(), func(ctx context.Context, in orchestrator.Interpreter) error {
				res, err := in.Handle(ctx, strings.Join(args, " "), orchestrator.Context{ProjectID: viper.GetString("project")})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				fmt.Println(res.Reply)
				return nil
			})
		},
	}
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectShowCmd())
	prj.AddCommand(projectProgressCmd())
	prj.AddCommand(projectPendingCmd())
	return prj
}

func projectCreateCmd() *cobra.Command {
	var title, client, description, budget, timeline, brief string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project from a brief",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInterpreter(cmd.Context(), func(ctx context.Context, in orchestrator.Interpreter) error {
				p, err := in.CreateProject(ctx, orchestrator.CreateProjectInput{
					Title: title, Client: client, Description: description,
					Budget: budget, Timeline: timeline, Brief: brief,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(p)
				}
				fmt.Printf("Created project %s (%s) with %d tasks.\n", p.Title, p.ID, len(p.Tasks))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "project title")
	cmd.Flags().StringVar(&client, "client", "", "client name")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&budget, "budget", "", "budget")
	cmd.Flags().StringVar(&timeline, "timeline", "", "timeline")
	cmd.Flags().StringVar(&brief, "brief", "", "free-text brief used to generate tasks")
	return cmd
}

func projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListProjects(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Client", "Tasks", "Done"})
				for _, p := range items {
					done := 0
					for _, t := range p.Tasks {
						if t.Status == domain.StatusDone {
							done++
						}
					}
					tw.AppendRow(table.Row{p.ID, p.Title, p.Client, len(p.Tasks), done})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func projectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				p, err := r.GetProject(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(p)
				}
				fmt.Printf("%s / %s\n", p.Title, p.Client)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Role", "Title", "Status", "Assignee"})
				names := map[string]string{}
				for _, m := range p.Members {
					names[m.ID] = m.Name
				}
				for _, t := range p.Tasks {
					assignee := ""
					if t.AssigneeID != nil {
						assignee = names[*t.AssigneeID]
					}
					tw.AppendRow(table.Row{t.ID, t.Role, t.Title, t.Status, assignee})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func projectProgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress <project-id>",
		Short: "Task progress grouped by role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInterpreter(cmd.Context(), func(ctx context.Context, in orchestrator.Interpreter) error {
				progress, err := in.ProgressByRole(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(progress)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Role", "Done", "Total"})
				for _, role := range domain.Roles {
					if r, ok := progress[role]; ok {
						tw.AppendRow(table.Row{role, r.Done, r.Total})
					}
				}
				tw.Render()
				return nil
			})
		},
	}
}

func projectPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending <project-id>",
		Short: "Members holding unfinished tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInterpreter(cmd.Context(), func(ctx context.Context, in orchestrator.Interpreter) error {
				owners, err := in.PendingOwners(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(owners)
				}
				if len(owners) == 0 {
					fmt.Println("All assigned tasks are done.")
					return nil
				}
				for _, o := range owners {
					fmt.Printf("%s (%s)\n", o.Name, o.Role)
				}
				return nil
			})
		},
	}
}

func taskCmd() *cobra.Command {
	task := &cobra.Command{Use: "task", Short: "Update tasks"}
	var status string
	statusCmd := &cobra.Command{
		Use:   "status <project-id> <task-id>",
		Short: "Set task status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch status {
			case domain.StatusPending, domain.StatusInProgress, domain.StatusDone:
			default:
				return fmt.Errorf("invalid status %q (Pending, In Progress, Done)", status)
			}
			return withInterpreter(cmd.Context(), func(ctx context.Context, in orchestrator.Interpreter) error {
				p, err := in.SetTaskStatus(ctx, args[0], args[1], status)
				if err != nil {
					return err
				}
				return printJSONOrMessage(p, fmt.Sprintf("Task %s set to %s.", args[1], status))
			})
		},
	}
	statusCmd.Flags().StringVar(&status, "to", domain.StatusDone, "new status")
	task.AddCommand(statusCmd)

	var url string
	deliverableCmd := &cobra.Command{
		Use:   "deliverable <project-id> <task-id>",
		Short: "Attach a deliverable",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInterpreter(cmd.Context(), func(ctx context.Context, in orchestrator.Interpreter) error {
				p, err := in.SetTaskDeliverable(ctx, args[0], args[1], url)
				if err != nil {
					return err
				}
				return printJSONOrMessage(p, fmt.Sprintf("Deliverable recorded for task %s.", args[1]))
			})
		},
	}
	deliverableCmd.Flags().StringVar(&url, "url", "", "deliverable URL or note")
	task.AddCommand(deliverableCmd)
	return task
}

func memberCmd() *cobra.Command {
	member := &cobra.Command{Use: "member", Short: "Manage the team roster"}
	member.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				members, err := r.Members(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(members)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Role"})
				for _, m := range members {
					tw.AppendRow(table.Row{m.ID, m.Name, m.Role})
				}
				tw.Render()
				return nil
			})
		},
	})
	return member
}

func walletCmd() *cobra.Command {
	wallet := &cobra.Command{Use: "wallet", Short: "Wallet transfers and KPIs"}
	wallet.AddCommand(walletImportCmd())
	wallet.AddCommand(walletSummaryCmd())
	return wallet
}

func walletImportCmd() *cobra.Command {
	var address, file string
	var fetch bool
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transfers from a file or the block explorer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				cfg, err := config.Load(viper.GetString("workspace"))
				if err != nil {
					return err
				}
				if address == "" {
					address = cfg.Wallet.Address
				}
				var txs []domain.Transaction
				switch {
				case file != "":
					data, err := os.ReadFile(file)
					if err != nil {
						return err
					}
					if err := json.Unmarshal(data, &txs); err != nil {
						return fmt.Errorf("parse %s: %w", file, err)
					}
				case fetch:
					client := ledger.NewExplorerClient(cfg.Wallet.ExplorerAPIKey)
					txs = client.TransactionsOrSample(ctx, address)
				default:
					txs = ledger.SampleTransactions(address, time.Now())
				}
				if err := r.ReplaceTransactions(ctx, address, txs); err != nil {
					return err
				}
				w := events.Writer{DB: r.DB}
				_ = w.Append(ctx, "transactions.imported", "wallet", address, map[string]any{"count": len(txs)})
				fmt.Printf("Imported %d transfers for %s.\n", len(txs), address)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "wallet address (defaults to pal.yml)")
	cmd.Flags().StringVar(&file, "file", "", "JSON file of transfers")
	cmd.Flags().BoolVar(&fetch, "fetch", false, "fetch from the block explorer")
	return cmd
}

func walletSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Income/spending KPIs and what-if scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				txs, address, err := r.Transactions(ctx)
				if err != nil {
					return err
				}
				kpis := ledger.Aggregate(txs, address).KPIs()
				scenarios := ledger.WhatIfScenarios(kpis)
				if viper.GetBool("json") {
					return printJSON(map[string]any{"kpis": kpis, "scenarios": scenarios})
				}
				fmt.Printf("Weekly income:   %.4f ETH\n", kpis.WeeklyIncome)
				fmt.Printf("Weekly spending: %.4f ETH\n", kpis.WeeklySpending)
				fmt.Printf("Monthly net:     %.4f ETH\n", kpis.MonthlyNet)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Scenario", "Impact", "Next step"})
				for _, s := range scenarios {
					tw.AppendRow(table.Row{s.Title, fmt.Sprintf("%.2f", s.Impact), s.Action})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func logCmd() *cobra.Command {
	log := &cobra.Command{Use: "log", Short: "Activity log"}
	var n int
	var evtType, entityKind string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.LatestEvents(ctx, n, evtType, entityKind)
				if err != nil {
					return err
				}
				return printJSON(items)
			})
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of events")
	tail.Flags().StringVar(&evtType, "type", "", "event type filter")
	tail.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind filter")
	log.AddCommand(tail)
	return log
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if basePath == "" {
				basePath = cfg.Server.BasePath
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			logger, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer logger.Sync()
			r := repo.Repo{DB: conn}
			in := orchestrator.New(r)
			in.Events = events.Writer{DB: conn}
			if members := cfg.Members(); members != nil {
				if err := r.SetMembers(cmd.Context(), members); err != nil {
					return err
				}
			}
			handler, err := server.New(server.Config{
				Assistant:   assistant.New(),
				Interpreter: in,
				Repo:        r,
				Logger:      logger,
				BasePath:    basePath,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			logger.Info("serving PAL API", zap.String("addr", addr), zap.String("base_path", basePath))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to pal.yml)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (defaults to pal.yml)")
	return cmd
}

// --- helpers ---

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func withInterpreter(ctx context.Context, fn func(context.Context, orchestrator.Interpreter) error) error {
	return withRepo(ctx, func(ctx context.Context, r repo.Repo) error {
		in := orchestrator.New(r)
		in.Events = events.Writer{DB: r.DB}
		cfg, err := config.Load(viper.GetString("workspace"))
		if err != nil {
			return err
		}
		if members := cfg.Members(); members != nil {
			if err := r.SetMembers(ctx, members); err != nil {
				return err
			}
		}
		return fn(ctx, in)
	})
}

func printJSONOrMessage(v any, msg string) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	fmt.Println(msg)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
