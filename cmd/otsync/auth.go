package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/overtime-sync/internal/config"
	"github.com/Veraticus/overtime-sync/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
		Long:  `Authenticate with external services like Google Sheets.`,
	}

	cmd.AddCommand(authSheetsCmd())

	return cmd
}

func authSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Authenticate with Google Sheets",
		Long: `Authenticate with Google Sheets using OAuth2.

This command will:
1. Print a URL to authenticate with Google
2. Wait for the redirect on the local callback address
3. Save the token to sheets.token_file for future runs

Not needed when a service account key (credentials.json) is used.`,
		RunE: runAuthSheets,
	}

	cmd.Flags().String("client-id", "", "OAuth2 Client ID (overrides config)")
	cmd.Flags().String("client-secret", "", "OAuth2 Client Secret (overrides config)")
	cmd.Flags().String("callback-addr", sheets.DefaultCallbackAddr, "Address for the OAuth2 redirect listener")
	cmd.Flags().Bool("force", false, "Ignore any saved token and authenticate again")

	return cmd
}

func runAuthSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// Get OAuth2 config
	clientID := viper.GetString("sheets.client_id")
	clientSecret := viper.GetString("sheets.client_secret")

	// Override with flags if provided
	if flagID, _ := cmd.Flags().GetString("client-id"); flagID != "" {
		clientID = flagID
	}
	if flagSecret, _ := cmd.Flags().GetString("client-secret"); flagSecret != "" {
		clientSecret = flagSecret
	}

	// Check for environment variables as fallback
	if clientID == "" {
		clientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	}

	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("OAuth2 credentials not found. Please set sheets.client_id and sheets.client_secret in config or use --client-id and --client-secret flags")
	}

	callbackAddr, _ := cmd.Flags().GetString("callback-addr")
	force, _ := cmd.Flags().GetBool("force")

	oauthConfig := sheets.OAuth2Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenFile:    config.ExpandPath(viper.GetString("sheets.token_file")),
		CallbackAddr: callbackAddr,
	}

	slog.Info("Starting Google Sheets authentication", "token_file", oauthConfig.TokenFile)

	var err error
	if force {
		_, err = sheets.AuthenticateOAuth2Interactive(ctx, oauthConfig, slog.Default())
	} else {
		_, err = sheets.GetOrCreateToken(ctx, oauthConfig, slog.Default())
	}
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	slog.Info("✅ Authentication successful!")
	slog.Info("📊 Google Sheets is now configured and ready to use.")
	slog.Info("Run 'otsync run --all' to sync every job.")

	return nil
}
