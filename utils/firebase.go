// utils/firebase.go
package utils

import (
	"context"
	"fmt"

	"morningfocus/config"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var FCMClient *messaging.Client

// FirebaseInit initializes the Firebase App and Messaging client from the
// Google service account file. Reminders are disabled when it fails.
func FirebaseInit(ctx context.Context) (*messaging.Client, error) {
	if config.AppConfig.GoogleServiceAccountFile == "" {
		return nil, fmt.Errorf("firebase: GOOGLE_SERVICE_ACCOUNT_FILE is not set")
	}
	opt := option.WithCredentialsFile(config.AppConfig.GoogleServiceAccountFile)

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("firebase: error initializing app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: error getting Messaging client: %w", err)
	}

	FCMClient = client
	return client, nil
}
