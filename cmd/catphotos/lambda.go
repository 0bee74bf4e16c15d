package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"catphotos"
	"catphotos/config"
	"catphotos/database"
	"catphotos/gateway"
	s3store "catphotos/objectstore/s3"
)

func runLambda(cmd *cobra.Command, args []string) error {
	return startLambda()
}

// startLambda builds the handler once and hands it to the Lambda runtime.
// Clients are created before lambda.Start so warm invocations reuse them.
func startLambda() error {
	ctx := context.Background()

	configFiles, _ := rootCmd.PersistentFlags().GetStringSlice("config")
	cfg, err := config.Load(configFiles, nil)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setupLogging(cfg.Log.Level)

	repo, cleanup, err := database.Connect(ctx, database.Config{
		Backend: cfg.Database.Backend,
		Table:   cfg.Photos.Table,
		Region:  cfg.AWS.Region,
		DSN:     cfg.Database.DSN,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer cleanup()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	store := s3store.New(awss3.NewFromConfig(awsCfg), cfg.Photos.Bucket)

	service := catphotos.NewPhotoService(repo, store, catphotos.ServiceConfig{
		PresignTTL: cfg.Photos.PresignTTL(),
	})

	handler := gateway.NewHandler(&gateway.HandlerConfig{
		Auth:  catphotos.NewAuthenticator(cfg.Auth.AllowedIDs()),
		Pages: gateway.NewHTMLRenderer(),
	}, service)

	lambda.Start(handler.Handle)
	return nil
}
