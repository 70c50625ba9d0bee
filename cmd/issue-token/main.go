// Command issue-token prints an operator access token signed with JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"outreach-agent/internal/auth"
	"outreach-agent/internal/config"
	"outreach-agent/internal/rbac"
)

func main() {
	operator := flag.String("operator", "", "operator name (token subject)")
	role := flag.String("role", rbac.RoleOperator, "role: operator or admin")
	flag.Parse()

	if *operator == "" || !rbac.Valid(*role) {
		flag.Usage()
		os.Exit(2)
	}

	// Only the auth section is needed; the full Load would demand DB and Redis settings.
	_ = godotenv.Load()
	var cfg config.AuthConfig
	if err := env.Parse(&cfg); err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	m, err := auth.NewManager(cfg)
	if err != nil {
		slog.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	tok, exp, err := m.IssueAccess(time.Now(), *operator, *role)
	if err != nil {
		slog.Error("token issuance failed", "err", err)
		os.Exit(1)
	}

	fmt.Println(tok)
	fmt.Fprintf(os.Stderr, "expires %s\n", exp.Format(time.RFC3339))
}
