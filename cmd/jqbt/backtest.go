package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hika3390/jquants-backtest/internal/backtest"
	"github.com/hika3390/jquants-backtest/internal/condition"
	"github.com/hika3390/jquants-backtest/internal/config"
	"github.com/hika3390/jquants-backtest/internal/core"
	"github.com/hika3390/jquants-backtest/internal/jquants"
)

var (
	backtestCode   string
	backtestFrom   string
	backtestTo     string
	backtestCash   float64
	backtestMaxPos float64
	backtestQuotes string
	backtestJSON   bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [strategy file]",
	Short: "Run a condition strategy against historical quotes",
	Long: `Run a strategy file (YAML with buy/sell/take_profit/stop_loss
condition groups) against daily quotes and show performance statistics.
Quotes come from the J-Quants API, or from a local JSON file with --quotes.`,
	Args: cobra.ExactArgs(1),
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestCode, "code", "", "Stock code to backtest (required)")
	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "Start date YYYY-MM-DD (required)")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "End date YYYY-MM-DD (required)")
	backtestCmd.Flags().Float64Var(&backtestCash, "cash", 1000000, "Initial cash")
	backtestCmd.Flags().Float64Var(&backtestMaxPos, "max-position", 100, "Max position size as percent of initial cash")
	backtestCmd.Flags().StringVar(&backtestQuotes, "quotes", "", "Local JSON quotes file instead of the J-Quants API")
	backtestCmd.Flags().BoolVar(&backtestJSON, "json", false, "Print the full result as JSON")

	backtestCmd.MarkFlagRequired("code")
	backtestCmd.MarkFlagRequired("from")
	backtestCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(backtestCmd)
}

// strategyFile is the on-disk shape of a strategy definition.
type strategyFile struct {
	Buy        condition.Group `mapstructure:"buy"`
	Sell       condition.Group `mapstructure:"sell"`
	TakeProfit condition.Group `mapstructure:"take_profit"`
	StopLoss   condition.Group `mapstructure:"stop_loss"`
}

func runBacktest(cmd *cobra.Command, args []string) error {
	fromDate, err := time.Parse("2006-01-02", backtestFrom)
	if err != nil {
		return fmt.Errorf("invalid from date format (expected YYYY-MM-DD): %w", err)
	}
	toDate, err := time.Parse("2006-01-02", backtestTo)
	if err != nil {
		return fmt.Errorf("invalid to date format (expected YYYY-MM-DD): %w", err)
	}
	if toDate.Before(fromDate) {
		return fmt.Errorf("end date must be after start date")
	}

	strat, err := loadStrategy(args[0])
	if err != nil {
		return err
	}

	quotes, err := loadQuotes(cmd.Context(), fromDate, toDate)
	if err != nil {
		return err
	}

	bt, err := backtest.New(quotes, backtest.Params{
		InitialCash: backtestCash,
		MaxPosition: backtestMaxPos,
		Buy:         strat.Buy,
		Sell:        strat.Sell,
		TakeProfit:  strat.TakeProfit,
		StopLoss:    strat.StopLoss,
	})
	if err != nil {
		return fmt.Errorf("invalid backtest parameters: %w", err)
	}

	result := bt.Run()

	if backtestJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(result)
	return nil
}

func loadStrategy(path string) (*strategyFile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading strategy file: %w", err)
	}

	var strat strategyFile
	if err := v.Unmarshal(&strat); err != nil {
		return nil, fmt.Errorf("unmarshaling strategy file: %w", err)
	}
	return &strat, nil
}

func loadQuotes(ctx context.Context, from, to time.Time) ([]core.Quote, error) {
	if backtestQuotes != "" {
		data, err := os.ReadFile(backtestQuotes)
		if err != nil {
			return nil, fmt.Errorf("reading quotes file: %w", err)
		}
		var quotes []core.Quote
		if err := json.Unmarshal(data, &quotes); err != nil {
			return nil, fmt.Errorf("parsing quotes file: %w", err)
		}
		return filterByDateRange(quotes, from, to), nil
	}

	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
	}

	client := jquants.New(cfg.JQuants.IDToken)
	if cfg.JQuants.BaseURL != "" {
		client = client.WithBaseURL(cfg.JQuants.BaseURL)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	return client.DailyQuotes(fetchCtx, backtestCode, from, to)
}

// filterByDateRange keeps quotes within [from, to] inclusive.
func filterByDateRange(quotes []core.Quote, from, to time.Time) []core.Quote {
	filtered := make([]core.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.Date.Before(from) || q.Date.After(to) {
			continue
		}
		filtered = append(filtered, q)
	}
	return filtered
}

func printResult(r *backtest.Result) {
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Code:          %s\n", backtestCode)
	fmt.Printf("Period:        %s to %s\n", backtestFrom, backtestTo)
	fmt.Println()
	fmt.Printf("Initial cash:  %14.2f\n", r.InitialCash)
	fmt.Printf("Final equity:  %14.2f\n", r.FinalEquity)
	fmt.Printf("Total return:  %13.2f%%\n", r.TotalReturn)
	fmt.Printf("Win rate:      %13.2f%%\n", r.WinRate)
	fmt.Printf("Max drawdown:  %13.2f%%\n", r.MaxDrawdown)
	fmt.Printf("Sharpe ratio:  %14.2f\n", r.SharpeRatio)
	fmt.Printf("Trades:        %14d\n", r.TotalTrades())

	if len(r.Trades) == 0 {
		return
	}

	fmt.Println()
	fmt.Println("Entry       Exit        Qty       Entry px   Exit px    P&L          Return    Reason")
	for _, t := range r.Trades {
		fmt.Printf("%s  %s  %8d  %9.2f  %9.2f  %11.2f  %7.2f%%  %s\n",
			t.EntryDate.Format("2006-01-02"),
			t.ExitDate.Format("2006-01-02"),
			t.Quantity, t.EntryPrice, t.ExitPrice,
			t.ProfitLoss, t.ReturnPercent, t.ExitReason)
	}
}
