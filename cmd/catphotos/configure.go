package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write a config file interactively",
	Long: `Create a config.yaml interactively.

You will be prompted for the photo table and bucket, the family id
allow-list, and the backends to use. Picking the local backends
generates a signing secret for object URLs automatically.`,
	RunE: runConfigure,
}

var configOutput string

func init() {
	configureCmd.Flags().StringVar(&configOutput, "output", "config.yaml", "output file path")
	rootCmd.AddCommand(configureCmd)
}

// fileConfig mirrors the config package's layout so the written file reads
// back without translation.
type fileConfig struct {
	Photos struct {
		Table             string `yaml:"table"`
		Bucket            string `yaml:"bucket"`
		PresignTTLMinutes int    `yaml:"presign_ttl_minutes"`
	} `yaml:"photos"`
	AWS struct {
		Region string `yaml:"region"`
	} `yaml:"aws"`
	Auth struct {
		AllowedFamilyIDs string `yaml:"allowed_family_ids"`
	} `yaml:"auth"`
	Database struct {
		Backend string `yaml:"backend"`
		DSN     string `yaml:"dsn,omitempty"`
	} `yaml:"database"`
	Storage struct {
		Backend       string `yaml:"backend"`
		Path          string `yaml:"path,omitempty"`
		SigningSecret string `yaml:"signing_secret,omitempty"`
	} `yaml:"storage"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func runConfigure(_ *cobra.Command, _ []string) error {
	if _, err := os.Stat(configOutput); err == nil {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("%s already exists. Overwrite it", configOutput),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	var cfg fileConfig

	table, err := requiredPrompt("Photo table name", "photos")
	if err != nil {
		return handlePromptError(err)
	}
	cfg.Photos.Table = table

	bucket, err := requiredPrompt("Photo bucket name", "photos")
	if err != nil {
		return handlePromptError(err)
	}
	cfg.Photos.Bucket = bucket
	cfg.Photos.PresignTTLMinutes = 15

	region, err := promptWithDefault("AWS region", "us-east-1")
	if err != nil {
		return handlePromptError(err)
	}
	cfg.AWS.Region = region

	allowed, err := promptWithDefault("Allowed family ids (comma separated, empty allows any)", "")
	if err != nil {
		return handlePromptError(err)
	}
	cfg.Auth.AllowedFamilyIDs = allowed

	dbSelect := promptui.Select{
		Label: "Metadata backend",
		Items: []string{"dynamo", "sqlite"},
	}
	_, dbBackend, err := dbSelect.Run()
	if err != nil {
		return handlePromptError(err)
	}
	cfg.Database.Backend = dbBackend
	if dbBackend == "sqlite" {
		dsn, dsnErr := promptWithDefault("SQLite data source name", "catphotos.db")
		if dsnErr != nil {
			return handlePromptError(dsnErr)
		}
		cfg.Database.DSN = dsn
	}

	storageSelect := promptui.Select{
		Label: "Object store backend",
		Items: []string{"s3", "local"},
	}
	_, storageBackend, err := storageSelect.Run()
	if err != nil {
		return handlePromptError(err)
	}
	cfg.Storage.Backend = storageBackend
	if storageBackend == "local" {
		storagePath, pathErr := promptWithDefault("Local object store directory", "./data")
		if pathErr != nil {
			return handlePromptError(pathErr)
		}
		cfg.Storage.Path = storagePath

		secret, secretErr := newSigningSecret()
		if secretErr != nil {
			return secretErr
		}
		cfg.Storage.SigningSecret = secret
		fmt.Println("Generated a signing secret for local object URLs.")
	}

	portStr, err := (&promptui.Prompt{
		Label:   "HTTP server port",
		Default: "8380",
		Validate: func(input string) error {
			port, parseErr := strconv.Atoi(input)
			if parseErr != nil || port < 1 || port > 65535 {
				return errors.New("port must be a number between 1 and 65535")
			}
			return nil
		},
	}).Run()
	if err != nil {
		return handlePromptError(err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)
	cfg.Log.Level = "info"

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(configOutput, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Wrote %s.\n", configOutput)
	return nil
}

func requiredPrompt(label, example string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if input == "" {
				return fmt.Errorf("%s is required (e.g. %q)", label, example)
			}
			return nil
		},
	}
	return prompt.Run()
}

func promptWithDefault(label, def string) (string, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: def,
	}
	return prompt.Run()
}

func newSigningSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate signing secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// handlePromptError handles promptui errors.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
