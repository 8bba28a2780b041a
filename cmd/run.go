package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/seedscout/seedscout/internal/ai"
	"github.com/seedscout/seedscout/internal/ai/gemini"
	"github.com/seedscout/seedscout/internal/delivery"
	"github.com/seedscout/seedscout/internal/investors"
	"github.com/seedscout/seedscout/internal/logger"
	"github.com/seedscout/seedscout/internal/matching"
	"github.com/seedscout/seedscout/internal/pipeline"
	"github.com/seedscout/seedscout/internal/secrets"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes        = "Yes"
	PromptNo         = "No"
	PromptDumpToFile = "Dump outreach batch to file"
	outreachDumpFile = "outreach-batch.json"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Send the outreach batch?",
	Items: []string{PromptYes, PromptNo, PromptDumpToFile},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Match the configured founder profile against the investor index once",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before sending the outreach batch")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting seedscout", zap.String("version", version))

	if config == nil {
		logger.Fatal("config is required")
	}

	if config.Founder == nil {
		logger.Fatal("founder profile is required under the 'founder' key to run a match")
	}

	pipe, sender, err := buildPipeline(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	input := ai.FounderInput{
		AboutYou:           config.Founder.AboutYou,
		AboutStartup:       config.Founder.AboutStartup,
		SelectedIndustries: config.Founder.Industries,
	}

	result, err := pipe.Run(ctx, input)
	if err != nil {
		logger.Fatal("running the pipeline", zap.Error(err))
	}

	logger.Info("pipeline finished",
		zap.Int("total_found", result.TotalFound),
		zap.Bool("summary_used_fallback", result.Summary.UsedFallback),
	)

	if result.TotalFound == 0 {
		logger.Info("exiting", zap.String("reason", "no matching investors found"))
		return
	}

	printMatches(result)

	if len(result.Outreach) == 0 {
		logger.Info("exiting", zap.String("reason", "no candidate has a usable destination"))
		return
	}

	action := PromptYes
	if cmd.Flag("auto-approve").Value.String() == "false" {
		_, action, err = prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	if err := handleAction(ctx, action, sender, logger, result); err != nil {
		if errors.Is(err, errExit) {
			return
		}
		logger.Fatal("exiting", zap.Error(err))
	}
}

func handleAction(ctx context.Context, action string, sender *delivery.Client, logger *zap.Logger, result *pipeline.Result) error {
	switch action {
	case PromptYes:
		if sender == nil {
			return errors.New("delivery service url is not configured")
		}
		results, err := sender.SendMessages(ctx, result.Outreach)
		if err != nil {
			return err
		}
		for _, item := range results {
			logger.Info("delivery status",
				zap.String("destination", item.ID),
				zap.String("status", item.Status),
				zap.String("detail", item.Detail),
			)
		}
		return errExit
	case PromptDumpToFile:
		data, err := json.MarshalIndent(result.Outreach, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(outreachDumpFile, data, 0o644); err != nil {
			return err
		}
		logger.Info("outreach batch dumped", zap.String("file", outreachDumpFile))
		return errExit
	default:
		return errExit
	}
}

func printMatches(result *pipeline.Result) {
	fmt.Printf("\nSummary (stage: %s):\n  %s\n\nMatches:\n", result.Summary.Stage, result.Summary.Summary)
	for i, candidate := range result.Candidates {
		fmt.Printf("%d. %s", i+1, candidate.Name)
		if candidate.Firm != "" {
			fmt.Printf(" (%s)", candidate.Firm)
		}
		fmt.Printf(" score=%.3f\n", candidate.Score)
		if candidate.PersonalizedMessage != "" {
			fmt.Printf("   %s\n", candidate.PersonalizedMessage)
		} else {
			fmt.Printf("   (no message drafted)\n")
		}
	}
	fmt.Println()
}

// buildPipeline assembles the pipeline stages from the configuration. The
// returned delivery client is nil when no delivery url is configured.
func buildPipeline(ctx context.Context, config *Config, log *zap.Logger) (*pipeline.Pipeline, *delivery.Client, error) {
	if config.Gemini == nil {
		return nil, nil, errors.New("gemini configuration is required")
	}
	if config.Qdrant == nil {
		return nil, nil, errors.New("qdrant configuration is required")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: config.Gemini.APIKey,
		File:  config.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, nil, err
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Config{
		APIKey:         apiKey,
		Model:          config.Gemini.Model,
		EmbeddingModel: config.Gemini.EmbeddingModel,
		Dimensions:     config.Gemini.Dimensions,
		MaxRetries:     config.Gemini.MaxRetries,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("building gemini generator: %w", err)
	}

	aiLogger := logger.WithCommonFields(log, "gemini", generator.Model())

	store, err := investors.NewQdrant(*config.Qdrant, log)
	if err != nil {
		return nil, nil, fmt.Errorf("building qdrant client: %w", err)
	}

	var pipelineConfig pipeline.Config
	if config.Pipeline != nil {
		pipelineConfig = *config.Pipeline
	}

	pipe := pipeline.New(
		gemini.NewExtractor(generator, aiLogger, config.Gemini.MaxLogLength),
		generator,
		matching.NewRetriever(store, store, log),
		gemini.NewComposer(generator, aiLogger, config.Gemini.MaxConcurrent, config.Gemini.MaxLogLength),
		pipelineConfig,
		log,
	)

	var sender *delivery.Client
	if config.Delivery != nil && config.Delivery.URL != "" {
		sender = delivery.New(config.Delivery.URL, log)
	}

	return pipe, sender, nil
}
