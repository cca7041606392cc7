package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// Small operator CLI against the relay's HTTP facade. There is no database
// to dial: every room lives in the server process.
func main() {
	baseURL := os.Getenv("RELAY_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		fmt.Println("Commands: create | info <room_id> | messages <room_id>")
		os.Exit(1)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	command := os.Args[1]

	switch command {
	case "create":
		body, err := request(client, http.MethodPost, baseURL+"/api/chat/create")
		if err != nil {
			log.Fatalf("Error creating room: %v", err)
		}
		fmt.Println(body)
	case "info":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin info <room_id>")
			os.Exit(1)
		}
		body, err := request(client, http.MethodGet, baseURL+"/api/chat/"+os.Args[2])
		if err != nil {
			log.Fatalf("Error fetching room: %v", err)
		}
		fmt.Println(body)
	case "messages":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin messages <room_id>")
			os.Exit(1)
		}
		body, err := request(client, http.MethodGet, baseURL+"/api/chat/"+os.Args[2]+"/messages")
		if err != nil {
			log.Fatalf("Error fetching messages: %v", err)
		}
		fmt.Println(body)
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}

func request(client *http.Client, method, url string) (string, error) {
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%s: %s", resp.Status, raw)
	}

	var pretty json.RawMessage = raw
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return string(raw), nil
	}
	return string(out), nil
}
