package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yourusername/race-edge/internal/logger"
	"github.com/yourusername/race-edge/internal/models"
	"github.com/yourusername/race-edge/internal/pipeline"
)

// raceFile is the on-disk race format. JSON files parse as YAML.
type raceFile struct {
	RaceID        string            `yaml:"race_id"`
	Budget        *float64          `yaml:"budget"`
	RiskTolerance *float64          `yaml:"risk_tolerance"`
	Participants  []participantFile `yaml:"participants"`
}

type participantFile struct {
	Name           string    `yaml:"name"`
	Odds           *float64  `yaml:"odds"`
	WinProbability *float64  `yaml:"win_probability"`
	PriceHistory   []float64 `yaml:"price_history"`
}

type evaluateOptions struct {
	file    string
	budget  float64
	risk    float64
	asJSON  bool
	verbose bool

	// defaultBudget applies portfolio.default_budget from config
	defaultBudget bool
}

func newEvaluateCmd() *cobra.Command {
	opts := evaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate one race file and print the opportunities and portfolio",
		Example: `  race-edge evaluate -f race.yaml
  race-edge evaluate -f race.json --budget 50000 --risk 0.25 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, hasBudget, err := readRaceFile(opts.file)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("budget") {
				in.Budget = opts.budget
				hasBudget = true
			}
			opts.defaultBudget = !hasBudget
			if cmd.Flags().Changed("risk") {
				risk := opts.risk
				in.RiskTolerance = &risk
			}
			return runEvaluate(cmd.Context(), cmd.OutOrStdout(), in, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Race file (YAML or JSON)")
	cmd.Flags().Float64Var(&opts.budget, "budget", 0, "Override the race budget")
	cmd.Flags().Float64Var(&opts.risk, "risk", 0, "Override the risk tolerance (0-1)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the decision as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log pipeline activity to stderr")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runEvaluate(ctx context.Context, out io.Writer, in models.RaceInput, opts evaluateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configFile, false)
	if err != nil {
		return err
	}

	log := logger.Discard()
	if opts.verbose {
		log = logger.NewLoggerWithOutput(cfg.App.LogLevel, cfg.App.Environment, os.Stderr)
	}
	if opts.defaultBudget {
		in.Budget = cfg.Portfolio.DefaultBudget
	}

	pl, err := pipeline.New(policyFromConfig(cfg), log)
	if err != nil {
		return err
	}

	decision, err := pl.Run(ctx, in)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(decision)
	}
	printDecision(out, decision, in, log)
	return nil
}

// readRaceFile loads a race from YAML or JSON. It also reports whether the
// file set a budget.
func readRaceFile(path string) (models.RaceInput, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.RaceInput{}, false, fmt.Errorf("failed to read race file: %w", err)
	}
	return parseRace(data)
}

func parseRace(data []byte) (models.RaceInput, bool, error) {
	var rf raceFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return models.RaceInput{}, false, fmt.Errorf("failed to parse race file: %w", err)
	}

	in := models.RaceInput{
		RaceID:        rf.RaceID,
		RiskTolerance: rf.RiskTolerance,
		Participants:  make([]models.ParticipantObservation, len(rf.Participants)),
	}
	if rf.Budget != nil {
		in.Budget = *rf.Budget
	}
	for i, p := range rf.Participants {
		if p.Odds == nil {
			return models.RaceInput{}, false, models.NewParticipantError(i, "odds", "is required")
		}
		if p.WinProbability == nil {
			return models.RaceInput{}, false, models.NewParticipantError(i, "win_probability", "is required")
		}
		in.Participants[i] = models.ParticipantObservation{
			Index:          i,
			Name:           p.Name,
			WinProbability: *p.WinProbability,
			MarketOdds:     *p.Odds,
			PriceHistory:   p.PriceHistory,
		}
	}
	return in, rf.Budget != nil, nil
}

func printDecision(out io.Writer, d *models.Decision, in models.RaceInput, log *logrus.Logger) {
	names := make(map[int]string, len(in.Participants))
	for _, p := range in.Participants {
		names[p.Index] = participantLabel(p.Index, p.Name)
	}

	counts := d.CountByTier()
	fmt.Fprintf(out, "\nRace %s | budget %.2f | risk %.2f\n", d.RaceID, d.Budget, d.RiskTolerance)
	fmt.Fprintf(out, "%d opportunities: P:%d G:%d S:%d B:%d | smart money: %d\n\n",
		len(d.Opportunities), counts[models.TierPlatinum], counts[models.TierGold],
		counts[models.TierSilver], counts[models.TierBronze], d.SmartMoneyCount())

	opps := tablewriter.NewWriter(out)
	opps.Header("Runner", "Tier", "EV", "RVI", "Win %", "Odds", "Smart $", "Reason")
	for _, o := range d.Opportunities {
		smart := ""
		if o.IsSmartMoney {
			smart = "yes"
		}
		if err := opps.Append(
			names[o.Index],
			string(o.Tier),
			fmt.Sprintf("%.3f", o.ExpectedValue),
			fmt.Sprintf("%.3f", o.RaceValueIndex),
			fmt.Sprintf("%.1f", o.WinProbability*100),
			fmt.Sprintf("%.2f", o.MarketOdds),
			smart,
			o.Reason,
		); err != nil {
			log.WithError(err).Warn("Failed to render opportunity row")
		}
	}
	opps.Render()

	fmt.Fprintln(out)
	if d.Portfolio.IsEmpty() {
		fmt.Fprintln(out, "No stakes recommended.")
		return
	}

	book := tablewriter.NewWriter(out)
	book.Header("Runner", "Tier", "Fraction", "Stake")
	for _, item := range d.Portfolio.Items {
		if err := book.Append(
			names[item.Index],
			string(item.Tier),
			fmt.Sprintf("%.4f", item.StakeFraction),
			fmt.Sprintf("%.2f", item.StakeAmount),
		); err != nil {
			log.WithError(err).Warn("Failed to render portfolio row")
		}
	}
	book.Render()

	summary := fmt.Sprintf("Total staked %.2f (%.2f%% of budget)", d.Portfolio.TotalAmount, d.Portfolio.TotalFraction*100)
	if d.Portfolio.Renormalized {
		summary += ", scaled down to fit the budget"
	}
	fmt.Fprintln(out, summary)
}

func participantLabel(index int, name string) string {
	if strings.TrimSpace(name) == "" {
		return fmt.Sprintf("#%d", index+1)
	}
	return name
}
