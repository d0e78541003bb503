// cmd/tools/expense-admin/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"expense-approvals/internal/app"
	"expense-approvals/internal/approval"
	"expense-approvals/internal/common/config"
	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/common/logger"
	"expense-approvals/internal/common/observability"
	"expense-approvals/internal/models"
	"expense-approvals/internal/notification"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var configPath string

func main() {
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)
	addUserCmd := flag.NewFlagSet("add-user", flag.ExitOnError)
	assignCmd := flag.NewFlagSet("assign-role", flag.ExitOnError)
	submitCmd := flag.NewFlagSet("submit", flag.ExitOnError)
	decideCmd := flag.NewFlagSet("decide", flag.ExitOnError)
	pendingCmd := flag.NewFlagSet("pending", flag.ExitOnError)
	mineCmd := flag.NewFlagSet("mine", flag.ExitOnError)
	claimCmd := flag.NewFlagSet("claim", flag.ExitOnError)
	inboxCmd := flag.NewFlagSet("inbox", flag.ExitOnError)
	readCmd := flag.NewFlagSet("mark-read", flag.ExitOnError)
	deviceCmd := flag.NewFlagSet("register-device", flag.ExitOnError)
	devicesCmd := flag.NewFlagSet("devices", flag.ExitOnError)
	removeCmd := flag.NewFlagSet("remove-device", flag.ExitOnError)
	testPushCmd := flag.NewFlagSet("test-push", flag.ExitOnError)
	analyticsCmd := flag.NewFlagSet("analytics", flag.ExitOnError)

	for _, fs := range []*flag.FlagSet{migrateCmd, seedCmd, addUserCmd, assignCmd, submitCmd, decideCmd, pendingCmd,
		mineCmd, claimCmd, inboxCmd, readCmd, deviceCmd, devicesCmd, removeCmd, testPushCmd, analyticsCmd} {
		fs.StringVar(&configPath, "config", "", "Path to config file (defaults to configs/config.yaml)")
	}

	// add-user
	userID := addUserCmd.String("id", "", "User ID (defaults to a new UUID)")
	userName := addUserCmd.String("name", "", "Display name")
	userEmail := addUserCmd.String("email", "", "E-mail address")
	userRoles := addUserCmd.String("roles", "EMPLOYEE", "Comma-separated roles")

	// assign-role
	assignUser := assignCmd.String("user", "", "User ID")
	assignRole := assignCmd.String("role", "", "Role (EMPLOYEE, MANAGER, ACCOUNTANT, ADMIN)")

	// submit
	submitUser := submitCmd.String("user", "", "Requester user ID")
	title := submitCmd.String("title", "", "Claim title")
	amount := submitCmd.String("amount", "", "Claim amount (e.g. 500.00)")
	description := submitCmd.String("description", "", "Description")
	category := submitCmd.String("category", "", "Category")
	receipt := submitCmd.String("receipt", "", "Receipt reference")

	// decide
	decideClaim := decideCmd.String("claim", "", "Claim ID")
	decideUser := decideCmd.String("user", "", "Approver user ID")
	decision := decideCmd.String("decision", "", "APPROVED or REJECTED")
	remarks := decideCmd.String("remarks", "", "Remarks")

	pendingUser := pendingCmd.String("user", "", "Approver user ID")
	mineUser := mineCmd.String("user", "", "Requester user ID")
	claimID := claimCmd.String("id", "", "Claim ID")

	// inbox
	inboxUser := inboxCmd.String("user", "", "Recipient user ID")
	limit := inboxCmd.Int("limit", notification.DefaultPageSize, "Page size")
	offset := inboxCmd.Int("offset", 0, "Page offset")

	readUser := readCmd.String("user", "", "Recipient user ID")
	readID := readCmd.String("id", "", "Notification ID (omit to mark all)")

	// devices
	deviceUser := deviceCmd.String("user", "", "Owner user ID")
	token := deviceCmd.String("token", "", "Device push token")
	platform := deviceCmd.String("platform", "", "web, android or ios")
	devicesUser := devicesCmd.String("user", "", "Owner user ID")
	removeUser := removeCmd.String("user", "", "Owner user ID")
	removeID := removeCmd.String("id", "", "Device ID")
	testUser := testPushCmd.String("user", "", "Recipient user ID")
	testTitle := testPushCmd.String("title", "Test Notification", "Title")
	testBody := testPushCmd.String("body", "This is a test push notification", "Body")

	// analytics
	analyticsUser := analyticsCmd.String("user", "", "Admin user ID")
	reportName := analyticsCmd.String("report", "all", "summary, category, status, approval-times, top-spenders or all")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "migrate":
		migrateCmd.Parse(os.Args[2:])
		run(ctx, func(a *app.App) (interface{}, error) {
			return "schema applied", a.Store.Migrate(ctx)
		})

	case "seed":
		seedCmd.Parse(os.Args[2:])
		run(ctx, func(a *app.App) (interface{}, error) {
			return "roles and statuses seeded", a.Store.SeedCatalog(ctx)
		})

	case "add-user":
		addUserCmd.Parse(os.Args[2:])
		if *userName == "" {
			fmt.Println("Error: name is required for add-user.")
			addUserCmd.Usage()
			os.Exit(1)
		}
		roles, err := parseRoles(*userRoles)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		id := *userID
		if id == "" {
			id = uuid.NewString()
		}
		run(ctx, func(a *app.App) (interface{}, error) {
			u := models.User{ID: id, Name: *userName, Email: *userEmail}
			if err := a.Store.AddUser(ctx, u); err != nil {
				return nil, err
			}
			for _, r := range roles {
				if err := a.Store.AssignRole(ctx, id, r); err != nil {
					return nil, err
				}
			}
			return u, nil
		})

	case "assign-role":
		assignCmd.Parse(os.Args[2:])
		role := models.Role(strings.ToUpper(*assignRole))
		if *assignUser == "" || !role.Valid() {
			fmt.Println("Error: user and a valid role are required for assign-role.")
			assignCmd.Usage()
			os.Exit(1)
		}
		run(ctx, func(a *app.App) (interface{}, error) {
			return fmt.Sprintf("assigned %s to %s", role, *assignUser), a.Store.AssignRole(ctx, *assignUser, role)
		})

	case "submit":
		submitCmd.Parse(os.Args[2:])
		value, err := decimal.NewFromString(*amount)
		if err != nil {
			fmt.Printf("Error: invalid amount %q\n", *amount)
			os.Exit(1)
		}
		runWithEvents(ctx, func(a *app.App) (interface{}, error) {
			return a.Claims.Submit(ctx, *submitUser, approval.SubmitInput{
				Title: *title, Amount: value, Description: *description, Category: *category, ReceiptRef: *receipt,
			})
		})

	case "decide":
		decideCmd.Parse(os.Args[2:])
		runWithEvents(ctx, func(a *app.App) (interface{}, error) {
			return a.Claims.Decide(ctx, approval.DecideInput{
				ClaimID:  *decideClaim,
				CallerID: *decideUser,
				Decision: models.Decision(strings.ToUpper(*decision)),
				Remarks:  *remarks,
			})
		})

	case "pending":
		pendingCmd.Parse(os.Args[2:])
		run(ctx, func(a *app.App) (interface{}, error) {
			return a.Claims.ListPendingFor(ctx, *pendingUser)
		})

	case "mine":
		mineCmd.Parse(os.Args[2:])
		run(ctx, func(a *app.App) (interface{}, error) {
			return a.Claims.ListMine(ctx, *mineUser)
		})

	case "claim":
		claimCmd.Parse(os.Args[2:])
		run(ctx, func(a *app.App) (interface{}, error) {
			return a.Claims.GetClaim(ctx, *claimID)
		})

	case "inbox":
		inboxCmd.Parse(os.Args[2:])
		run(ctx, func(a *app.App) (interface{}, error) {
			page, err := a.Inbox.List(ctx, *inboxUser, *limit, *offset)
			if err != nil {
				return nil, err
			}
			unread, err := a.Inbox.UnreadCount(ctx, *inboxUser)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"page": page, "unread": unread}, nil
		})

	case "mark-read":
		readCmd.Parse(os.Args[2:])
		run(ctx, func(a *app.App) (interface{}, error) {
			if *readID == "" {
				n, err := a.Inbox.MarkAllRead(ctx, *readUser)
				return map[string]int64{"updated": n}, err
			}
			return "marked as read", a.Inbox.MarkRead(ctx, *readID, *readUser)
		})

	case "register-device":
		deviceCmd.Parse(os.Args[2:])
		run(ctx, func(a *app.App) (interface{}, error) {
			return a.Registry.RegisterDevice(ctx, *deviceUser, notification.RegisterDeviceInput{
				Token: *token, Platform: models.Platform(strings.ToLower(*platform)),
			})
		})

	case "devices":
		devicesCmd.Parse(os.Args[2:])
		run(ctx, func(a *app.App) (interface{}, error) {
			return a.Registry.ListDevices(ctx, *devicesUser)
		})

	case "remove-device":
		removeCmd.Parse(os.Args[2:])
		run(ctx, func(a *app.App) (interface{}, error) {
			return "device removed", a.Registry.RemoveDevice(ctx, *removeID, *removeUser)
		})

	case "test-push":
		testPushCmd.Parse(os.Args[2:])
		run(ctx, func(a *app.App) (interface{}, error) {
			return a.Registry.SendTest(ctx, *testUser, *testTitle, *testBody)
		})

	case "analytics":
		analyticsCmd.Parse(os.Args[2:])
		run(ctx, func(a *app.App) (interface{}, error) {
			switch *reportName {
			case "summary":
				return a.Analytics.Summary(ctx, *analyticsUser)
			case "category":
				return a.Analytics.ByCategory(ctx, *analyticsUser)
			case "status":
				return a.Analytics.ByStatus(ctx, *analyticsUser)
			case "approval-times":
				return a.Analytics.ApprovalTimes(ctx, *analyticsUser)
			case "top-spenders":
				return a.Analytics.TopSpenders(ctx, *analyticsUser)
			case "all":
				return a.Analytics.Report(ctx, *analyticsUser)
			default:
				return nil, apperrors.NewValidationError("report: unknown report " + *reportName)
			}
		})

	case "help":
		fallthrough
	default:
		help()
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func connect(ctx context.Context) *app.App {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewStructured(cfg.Logging.Level, "console")
	a, err := app.New(ctx, cfg, log, observability.NewNoop())
	if err != nil {
		fmt.Printf("Error connecting: %v\n", err)
		os.Exit(1)
	}
	return a
}

func run(ctx context.Context, fn func(a *app.App) (interface{}, error)) {
	a := connect(ctx)
	out, err := fn(a)
	a.Close()
	report(out, err)
}

// runWithEvents starts the event bus so transition notifications are
// dispatched before the process exits.
func runWithEvents(ctx context.Context, fn func(a *app.App) (interface{}, error)) {
	a := connect(ctx)
	a.Start(ctx)
	out, err := fn(a)

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if serr := a.Shutdown(shutdownCtx); serr != nil {
		fmt.Printf("Warning: notifications may be incomplete: %v\n", serr)
	}
	report(out, err)
}

func report(out interface{}, err error) {
	if err != nil {
		resp := apperrors.ToResponse(err)
		data, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(data))
		os.Exit(1)
	}
	if s, ok := out.(string); ok {
		fmt.Println(s)
		return
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Printf("Error encoding output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

func parseRoles(list string) ([]models.Role, error) {
	var roles []models.Role
	for _, name := range strings.Split(list, ",") {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		role := models.Role(name)
		if !role.Valid() {
			return nil, fmt.Errorf("unknown role %q", name)
		}
		roles = append(roles, role)
	}
	return roles, nil
}

func help() {
	fmt.Println("Usage: expense-admin <command> [options]")
	fmt.Println()
	fmt.Println("Catalog:")
	fmt.Println("  migrate          Apply the database schema")
	fmt.Println("  seed             Seed roles and the status catalog")
	fmt.Println("  add-user         Create a user with roles")
	fmt.Println("  assign-role      Grant a role to a user")
	fmt.Println()
	fmt.Println("Claims:")
	fmt.Println("  submit           Submit an expense claim")
	fmt.Println("  decide           Approve or reject a claim at your level")
	fmt.Println("  pending          List claims awaiting your decision")
	fmt.Println("  mine             List your own claims")
	fmt.Println("  claim            Show a claim with its approval trail")
	fmt.Println()
	fmt.Println("Notifications:")
	fmt.Println("  inbox            List notifications and the unread count")
	fmt.Println("  mark-read        Mark one (-id) or all notifications read")
	fmt.Println("  register-device  Register a push endpoint")
	fmt.Println("  devices          List registered endpoints")
	fmt.Println("  remove-device    Deactivate an endpoint")
	fmt.Println("  test-push        Send a test push to your devices")
	fmt.Println()
	fmt.Println("Reporting:")
	fmt.Println("  analytics        Claim totals, status mix, approval times and top spenders")
	fmt.Println()
	fmt.Println("Run 'expense-admin <command> -h' for command options.")
}
