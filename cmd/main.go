package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang-news-dashboard/internal/dashboard/config"
	"golang-news-dashboard/internal/dashboard/dto"
	"golang-news-dashboard/pkg/redis"
	"golang-news-dashboard/pkg/utils"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "dashboard-cli",
	Short: "A CLI for operating the news dashboard sync service",
}

var publishCmd = &cobra.Command{
	Use:   "publish <event> <json-data>",
	Short: "Publishes one event envelope on the dashboard push channel",
	Args:  cobra.ExactArgs(2),
	RunE:  runPublish,
}

func runPublish(cmd *cobra.Command, args []string) error {
	if !json.Valid([]byte(args[1])) {
		return fmt.Errorf("event data is not valid JSON")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	client, err := redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	payload, err := json.Marshal(dto.Envelope{
		Event:     args[0],
		Data:      json.RawMessage(args[1]),
		Timestamp: utils.ToPointer(time.Now().UTC()),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	receivers, err := client.Publish(ctx, cfg.Channel.RedisChannel, payload).Result()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	fmt.Printf("Published %q to %s (%d receivers)\n", args[0], cfg.Channel.RedisChannel, receivers)
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-dashboard.yaml", "Path to the configuration file")
	rootCmd.AddCommand(publishCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI '%s'", err)
		os.Exit(1)
	}
}
