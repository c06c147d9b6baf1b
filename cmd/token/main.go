package main

import (
	"estate-desk/auth"
	"estate-desk/domain"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
}

// Mints a bearer token for local testing: token -email agent@x.com -role AGENT
func main() {
	email := flag.String("email", "", "Principal email")
	role := flag.String("role", string(domain.RoleVisitor), "OWNER, AGENT or VISITOR")
	flag.Parse()

	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	parsedRole, err := domain.ParseRole(*role)
	if err != nil {
		log.Fatal(err)
	}
	token, err := auth.GenerateToken([]byte(config.JWTSecret),
		domain.Principal{Email: *email, Role: parsedRole}, config.AuthTokenDuration)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}
