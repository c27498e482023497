// Package app provides the AI service application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kart-io/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ss0jung/rag-ai-chatbot/cmd/rag-ai-chatbot/app/options"
	"github.com/ss0jung/rag-ai-chatbot/internal/ragserver"
)

// Name is the name of the application.
const Name = "rag-ai-chatbot"

const commandDesc = `The RAG AI service of the document chatbot.

This server provides:
  - Namespace-scoped vector collections backed by Milvus
  - Asynchronous document ingestion (load, chunk, embed, index)
  - Retrieval-augmented answer generation in simple and agent modes`

// NewCommand creates the root cobra command.
func NewCommand() *cobra.Command {
	opts := options.NewServerOptions()
	var configFile string

	cmd := &cobra.Command{
		Use:           Name,
		Short:         "RAG AI service",
		Long:          commandDesc,
		Version:       version.Get().GitVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(configFile, cmd, opts); err != nil {
				return err
			}
			return run(opts)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to the configuration file.")
	opts.AddFlags(cmd.Flags())

	return cmd
}

// loadConfig merges the config file and environment into opts. Flags
// explicitly set on the command line win over both.
func loadConfig(configFile string, cmd *cobra.Command, opts *options.ServerOptions) error {
	v := viper.New()
	v.SetEnvPrefix("RAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := v.Unmarshal(opts); err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return nil
}

func run(opts *options.ServerOptions) error {
	if err := opts.LogOptions.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	server, err := ragserver.New(opts.Config())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return server.Run(setupSignalContext())
}

// setupSignalContext returns a context canceled on SIGINT or SIGTERM. A
// second signal exits immediately.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
