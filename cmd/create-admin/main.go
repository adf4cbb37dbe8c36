// Command create-admin adds an admin account directly to the database, or
// with -hash-only just prints the password hash.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/edu-center/site-api/internal/models"
	"github.com/edu-center/site-api/internal/service"
	"github.com/edu-center/site-api/internal/store"
	"github.com/edu-center/site-api/internal/utils"
)

func main() {
	_ = godotenv.Load()

	username := flag.String("username", "", "admin username")
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password")
	dsn := flag.String("db", os.Getenv("DATABASE_URL"), "postgres connection string")
	hashOnly := flag.Bool("hash-only", false, "print the password hash and exit")
	flag.Parse()

	if *password == "" {
		fmt.Fprintln(os.Stderr, "Usage: create-admin -username <name> -email <email> -password <password> [-db <dsn>]")
		fmt.Fprintln(os.Stderr, "       create-admin -hash-only -password <password>")
		os.Exit(1)
	}

	if *hashOnly {
		hash, err := utils.HashPassword(*password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	if *username == "" || *email == "" || *dsn == "" {
		fmt.Fprintln(os.Stderr, "username, email and db are required")
		os.Exit(1)
	}

	log := logrus.New()
	db, err := store.NewGormStore(*dsn, log)
	if err != nil {
		log.Fatalf("creating database client: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	u, err := service.NewUserService(db, true).CreateUser(ctx, *username, *email, *password, models.RoleAdmin)
	if err != nil {
		log.Fatalf("creating admin: %v", err)
	}
	fmt.Printf("created admin %s (%s)\n", u.Username, u.ID)
}
