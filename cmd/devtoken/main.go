package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// Dev-only helper that signs in to a running API and prints a bearer token.
//
//	devtoken -email asha@example.com -password secret1 -signup
//
// With -signup the account is registered first; an existing account is fine.

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func main() {
	api := flag.String("api", getenv("API_URL", "http://localhost:8080"), "API base URL")
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	signup := flag.Bool("signup", false, "register the account before signing in")
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}
	base := strings.TrimRight(*api, "/")
	client := &http.Client{Timeout: 10 * time.Second}
	creds := credentials{Email: *email, Password: *password}

	if *signup {
		status, body, err := post(client, base+"/auth/signup", creds)
		if err != nil {
			log.Fatalf("signup: %v", err)
		}
		if status != http.StatusCreated && status != http.StatusConflict {
			log.Fatalf("signup: status %d: %s", status, body)
		}
	}

	status, body, err := post(client, base+"/auth/signin", creds)
	if err != nil {
		log.Fatalf("signin: %v", err)
	}
	if status != http.StatusOK {
		log.Fatalf("signin: status %d: %s", status, body)
	}
	var out signInResponse
	if err := json.Unmarshal(body, &out); err != nil {
		log.Fatalf("decode signin response: %v", err)
	}
	fmt.Fprintf(os.Stderr, "expires %s\n", out.ExpiresAt.Format(time.RFC3339))
	fmt.Println(out.Token)
}

func post(client *http.Client, url string, v any) (int, []byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return 0, nil, err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return resp.StatusCode, body, err
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
