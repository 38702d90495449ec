package main

import (
	"fmt"
	"log"
	"os"

	"catalog.local/internal/platform/auth"
	"catalog.local/internal/platform/config"
)

// 签发管理接口用的 JWT，密钥、issuer、有效期取自 JWT_* 环境变量（或 .env）。
func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		log.Fatal("usage: go run ./cmd/tools/admintoken <user-id> [role]")
	}
	role := auth.RoleAdmin
	if len(os.Args) == 3 {
		role = os.Args[2]
	}

	cfg := config.Load()
	ts, err := auth.NewHS256Service(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		log.Fatal(err)
	}
	token, err := ts.Sign(os.Args[1], role)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}
