package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/pipeline"
	"github.com/absmach/tabula/pkg/mqtt"
	"github.com/absmach/tabula/pkg/sdk"
	"github.com/absmach/tabula/session"
	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	defOffset uint64 = 0
	defLimit  uint64 = 10

	errNoHeader     = errors.New("session has no columns to choose from")
	errMQTTNotSet   = errors.New("mqtt address not configured")
	errUnknownStage = errors.New("unknown stage")
)

var (
	tsdk     sdk.SDK
	mqttConf mqtt.Config
)

func SetSDK(s sdk.SDK) {
	tsdk = s
}

// SetMQTTConfig sets the broker used by sessions watch.
func SetMQTTConfig(cfg mqtt.Config) {
	mqttConf = cfg
}

// selectTarget asks the user to pick one of the columns.
var selectTarget = func(columns []string) (string, error) {
	if len(columns) == 0 {
		return "", errNoHeader
	}

	var target string
	err := huh.NewSelect[string]().
		Title("Select the target variable").
		Options(huh.NewOptions(columns...)...).
		Value(&target).
		Run()

	return target, err
}

func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions [create|list|view|target|stage|split|train|clear|run|watch]",
		Short: "Preprocessing sessions",
		Long:  `Create sessions, run preprocessing stages and fetch train/test splits.`,
	}

	var (
		name  string
		task  string
		sheet string
	)
	createCmd := &cobra.Command{
		Use:   "create <file>",
		Short: "Create session",
		Long: `Upload a CSV or XLSX dataset and open a session on it.

Examples:
  tabula-cli sessions create iris.csv
  tabula-cli sessions create prices.xlsx --sheet 2024 --task regression`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			n := name
			if n == "" {
				n = filepath.Base(args[0])
			}

			s, err := tsdk.CreateSession(sdk.Upload{Name: n, Data: data, Sheet: sheet, Task: task})
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}
	createCmd.Flags().StringVarP(&name, "name", "n", "", "Session name (defaults to the file name)")
	createCmd.Flags().StringVarP(&task, "task", "t", "", "Task kind (classification|regression)")
	createCmd.Flags().StringVar(&sheet, "sheet", "", "Spreadsheet sheet (defaults to the first)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		Long:  `List sessions.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			page, err := tsdk.ListSessions(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	var preview int
	viewCmd := &cobra.Command{
		Use:   "view <id>",
		Short: "View session",
		Long:  `View a session, its pipeline state and a preview of the dataset.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			v, err := tsdk.GetSession(args[0], preview)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, v)
		},
	}
	viewCmd.Flags().IntVarP(&preview, "preview", "p", 0, "Number of preview rows")

	targetCmd := &cobra.Command{
		Use:   "target <id> [column]",
		Short: "Select target variable",
		Long:  `Select the target column. Without a column a list of the dataset columns is shown.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 1 || len(args) > 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			var target string
			if len(args) == 2 {
				target = args[1]
			} else {
				v, err := tsdk.GetSession(args[0], 1)
				if err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				if target, err = selectTarget(v.Header); err != nil {
					logErrorCmd(*cmd, err)

					return
				}
			}

			v, err := tsdk.SetTarget(args[0], target)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, v.Dataset)
		},
	}

	var (
		method  string
		percent int
	)
	stageCmd := &cobra.Command{
		Use:   "stage <id> <statistics|missing-check|missing-handle|encode|scale|split|restore>",
		Short: "Run stage",
		Long: `Run one preprocessing stage.

Examples:
  tabula-cli sessions stage <id> statistics
  tabula-cli sessions stage <id> scale --method minmax
  tabula-cli sessions stage <id> split --test-percentage 20`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			kind, err := pipeline.ParseKind(args[1])
			if err != nil {
				logErrorCmd(*cmd, fmt.Errorf("%w: %s", errUnknownStage, args[1]))

				return
			}
			res, err := tsdk.RunStage(args[0], sdk.Stage{
				Kind:         kind,
				Method:       compute.ScaleMethod(method),
				TestFraction: percent,
			})
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, res)
		},
	}
	stageCmd.Flags().StringVarP(&method, "method", "m", string(compute.Standard), "Scaling method (standard|minmax)")
	stageCmd.Flags().IntVarP(&percent, "test-percentage", "p", 20, "Test partition percentage for split")

	splitCmd := &cobra.Command{
		Use:   "split <id>",
		Short: "Get split",
		Long:  `Get the train/test partitions of a split session.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			in, err := tsdk.GetSplit(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, in)
		},
	}

	trainCmd := &cobra.Command{
		Use:   "train <id> <model_name>",
		Short: "Train model",
		Long:  `Forward the split of a session to model training.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			res, err := tsdk.Train(args[0], args[1])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, res)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear <id>",
		Short: "Clear session",
		Long:  `Discard a session and its dataset.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			if err := tsdk.ClearSession(args[0]); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd)
		},
	}

	runCmd := &cobra.Command{
		Use:   "run <id> <recipe.yaml>",
		Short: "Run recipe",
		Long: `Apply a stored recipe: select its target, then run every step in order.

Example recipe:
  schema_version: v1
  target: species
  steps:
    - stage: missing-handle
    - stage: encode
    - stage: scale
      method: standard
    - stage: split
      test_percentage: 20`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			results, err := runRecipe(args[0], args[1])
			if err != nil {
				logJSONCmd(*cmd, results)
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, results)
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch <id>",
		Short: "Watch stage events",
		Long:  `Print stage events of a session as they are published. Requires an MQTT broker.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := watch(ctx, *cmd, args[0]); err != nil {
				logErrorCmd(*cmd, err)
			}
		},
	}

	cmd.AddCommand(createCmd)
	cmd.AddCommand(listCmd)
	cmd.AddCommand(viewCmd)
	cmd.AddCommand(targetCmd)
	cmd.AddCommand(stageCmd)
	cmd.AddCommand(splitCmd)
	cmd.AddCommand(trainCmd)
	cmd.AddCommand(clearCmd)
	cmd.AddCommand(runCmd)
	cmd.AddCommand(watchCmd)

	cmd.PersistentFlags().Uint64VarP(
		&defOffset,
		"offset",
		"o",
		defOffset,
		"Offset",
	)

	cmd.PersistentFlags().Uint64VarP(
		&defLimit,
		"limit",
		"l",
		defLimit,
		"Limit",
	)

	return cmd
}

func runRecipe(id, path string) ([]sdk.StageResult, error) {
	r, err := pipeline.LoadRecipe(path)
	if err != nil {
		return nil, err
	}
	stages, err := r.Stages()
	if err != nil {
		return nil, err
	}
	if r.Target != "" {
		if _, err := tsdk.SetTarget(id, r.Target); err != nil {
			return nil, err
		}
	}

	results := make([]sdk.StageResult, 0, len(stages))
	for i, st := range stages {
		res, err := tsdk.RunStage(id, st)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, st.Kind, err)
		}
		results = append(results, res)
	}

	return results, nil
}

func watch(ctx context.Context, cmd cobra.Command, id string) error {
	if mqttConf.Address == "" {
		return errMQTTNotSet
	}
	cfg := mqttConf
	if cfg.ID == "" {
		cfg.ID = "tabula-cli-" + uuid.NewString()
	}

	ps, err := mqtt.NewPubSub(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		return err
	}
	defer ps.Disconnect(context.Background())

	topic := session.StageTopic(id, "+")
	if err := ps.Subscribe(ctx, topic, func(_ string, msg map[string]any) error {
		logJSONCmd(cmd, msg)

		return nil
	}); err != nil {
		return err
	}

	<-ctx.Done()

	return ps.Unsubscribe(context.Background(), topic)
}
