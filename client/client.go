package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:8080"`
	Username      string `env:"CHAT_USERNAME,required=true"`
	Password      string `env:"CHAT_PASSWORD,required=true"`
	ChatID        string `env:"CHAT_ID,required=true"`
	LogLevel      string `env:"LOG_LEVEL,default=info"`
}

type frame struct {
	Event   string          `json:"event"`
	ChatID  string          `json:"chat_id,omitempty"`
	Content string          `json:"content,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v", err)
	}
	os.Exit(code)
}

// run handles login, the websocket lifecycle and the stdin loop.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Authenticate over HTTP to obtain the session token.
	token, err := login(ctx, config)
	if err != nil {
		return exitRuntime, fmt.Errorf("login failed: %w", err)
	}

	// 4. Open the websocket and join the chat.
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	url := fmt.Sprintf("ws://%s/ws?token=%s", config.ServerAddress, token)
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	if err := conn.WriteJSON(frame{Event: "join", ChatID: config.ChatID}); err != nil {
		return exitRuntime, fmt.Errorf("join failed: %w", err)
	}

	// 5. Print incoming events until the connection drops.
	go func() {
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				log.Info("Connection closed by server")
				stop()
				return
			}
			switch f.Event {
			case "message":
				var m struct {
					SenderName string `json:"sender_name"`
					Content    string `json:"content"`
				}
				_ = json.Unmarshal(f.Message, &m)
				fmt.Printf("%s> %s\n", m.SenderName, m.Content)
			case "error":
				fmt.Printf("server error: %s\n", f.Error)
			}
		}
	}()

	// 6. Forward stdin lines as messages.
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if line == "" {
				continue
			}
			if err := conn.WriteJSON(frame{Event: "message", ChatID: config.ChatID, Content: line}); err != nil {
				return exitRuntime, fmt.Errorf("send failed: %w", err)
			}
		}
	}
}

// login exchanges the credentials for a token over the HTTP API.
func login(ctx context.Context, config Config) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"username": config.Username,
		"password": config.Password,
	})
	url := fmt.Sprintf("http://%s/auth/login", config.ServerAddress)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	return payload.Token, nil
}
