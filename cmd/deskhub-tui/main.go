package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/deskhub-app/deskhub/internal/client"
	"github.com/deskhub-app/deskhub/internal/tui"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:50051", "gRPC address of the deskhub server")
	token := flag.String("token", os.Getenv("AUTH_TOKEN"), "optional auth token")
	flag.Parse()

	err := tui.Run(client.Options{
		Addr:           *addr,
		Token:          *token,
		Insecure:       true,
		RequestTimeout: 15 * time.Second,
		RetryAttempts:  3,
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
}
