package config

import (
	"context"
	"encoding/base64"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// FirebaseApp is nil when no credentials are configured; the push channel
// checks this and disables itself.
var FirebaseApp *firebase.App

// InitFirebase initializes the Firebase Admin SDK. Missing credentials
// are not fatal: the process runs with push delivery disabled.
func InitFirebase() {
	ctx := context.Background()

	projectID := os.Getenv("FIREBASE_PROJECT_ID")

	// Check for base64 encoded credentials first
	if base64Creds := os.Getenv("FIREBASE_CREDENTIALS_BASE64"); base64Creds != "" {
		log.Printf("Using Firebase credentials from base64 environment variable")
		decoded, err := base64.StdEncoding.DecodeString(base64Creds)
		if err != nil {
			log.Printf("Error decoding base64 Firebase credentials: %v", err)
			return
		}

		opt := option.WithCredentialsJSON(decoded)
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opt)
		if err != nil {
			log.Printf("Error initializing firebase app: %v", err)
			return
		}
		FirebaseApp = app
		return
	}

	// Fallback to file-based credentials
	credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	if credFile == "" {
		log.Println("Firebase credentials not configured, push notifications disabled")
		return
	}

	log.Printf("Using Firebase credentials file: %s", credFile)
	opt := option.WithCredentialsFile(credFile)

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opt)
	if err != nil {
		log.Printf("Error initializing firebase app: %v", err)
		return
	}
	FirebaseApp = app
}
