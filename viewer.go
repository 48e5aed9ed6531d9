package main

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/secureauth/sentinel/internal/middlewares"
	"github.com/secureauth/sentinel/params"
	"github.com/spf13/cast"
	"github.com/urfave/cli/v2"
)

// Command-line views over the audit store, for operators working on the
// host that runs the engine. The HTTP API serves the same data to remote
// collaborators.

func runSummary(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	svcs := initServices(cfg)

	summary, err := svcs.reportService.Summary(ctx.Context, ctx.Int(hoursFlag.Name))
	if err != nil {
		return err
	}

	fmt.Printf("Audit summary (last %d hours)\n", summary.TimeWindowHours)
	fmt.Printf("  total attempts: %d\n", summary.TotalAttempts)
	fmt.Printf("  successful:     %d\n", summary.Successful)
	fmt.Printf("  failed:         %d\n", summary.Failed)
	fmt.Printf("  blocked:        %d\n", summary.Blocked)
	if len(summary.TopFailedSubjects) > 0 {
		fmt.Println("  top subjects by failures:")
		for _, row := range summary.TopFailedSubjects {
			fmt.Printf("    %s: %d\n", row.Subject, row.Failures)
		}
	}
	if len(summary.ActiveAlerts) > 0 {
		fmt.Println("  active alerts by severity:")
		for severity, count := range summary.ActiveAlerts {
			fmt.Printf("    %s: %d\n", severity, count)
		}
	}
	return nil
}

func runAlerts(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	svcs := initServices(cfg)

	alerts, err := svcs.auditService.ListActiveAlerts(ctx.Context)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Println("No active alerts")
		return nil
	}
	for _, alert := range alerts {
		fmt.Printf("[%s] %s subject=%s id=%d time=%s\n  %s\n",
			alert.Severity, alert.AlertType, alert.Subject, alert.ID,
			alert.Timestamp.Format(time.RFC3339), alert.Description)
	}
	return nil
}

func runUserActivity(ctx *cli.Context) error {
	subject := ctx.Args().First()
	if subject == "" {
		return cli.Exit("missing subject argument", 1)
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	svcs := initServices(cfg)

	events, err := svcs.reportService.UserActivity(ctx.Context, subject, ctx.Int(limitFlag.Name))
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Printf("No activity found for subject %s\n", subject)
		return nil
	}
	for _, event := range events {
		fmt.Printf("%s %s %s [%s] origin=%s\n",
			event.Timestamp.Format(time.RFC3339), event.EventType, event.Status,
			event.RiskLevel, event.Origin)
	}
	return nil
}

func runResolve(ctx *cli.Context) error {
	alertID, err := cast.ToUint64E(ctx.Args().First())
	if err != nil || alertID == 0 {
		return cli.Exit("invalid alert id", 1)
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	svcs := initServices(cfg)

	if err := svcs.auditService.ResolveAlert(ctx.Context, alertID); err != nil {
		return err
	}
	fmt.Printf("Alert %d marked as resolved\n", alertID)
	return nil
}

func runExport(ctx *cli.Context) error {
	filename := ctx.Args().First()
	if filename == "" {
		filename = "audit_export.json"
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	svcs := initServices(cfg)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	count, err := svcs.reportService.Export(ctx.Context, file)
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d events to %s\n", count, filename)
	return nil
}

func runToken(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.MasterKey == "" {
		return cli.Exit("masterKey is not configured", 1)
	}

	claims := middlewares.TokenClaims{
		Caller: ctx.String(callerFlag.Name),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(params.APITokenExpiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.MasterKey))
	if err != nil {
		return err
	}
	fmt.Println(signed)
	return nil
}
