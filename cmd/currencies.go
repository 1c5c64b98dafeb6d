package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/pburn/internal/cli"
	"github.com/theirongolddev/pburn/internal/currency"

	"github.com/spf13/cobra"
)

var currenciesCmd = &cobra.Command{
	Use:   "currencies",
	Short: "Supported currencies and exchange rates",
	RunE:  runCurrencies,
}

var convertCmd = &cobra.Command{
	Use:   "convert AMOUNT FROM TO",
	Short: "Convert an amount with the configured rates",
	Args:  cobra.ExactArgs(3),
	RunE:  runConvert,
}

func init() {
	currenciesCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(currenciesCmd)
}

func runCurrencies(_ *cobra.Command, _ []string) error {
	rates := appConfig.RateTable()
	base := appConfig.General.DefaultCurrency

	rows := make([][]string, 0, len(currency.All()))
	for _, c := range currency.All() {
		rate := "-"
		if rates.Has(c.Code, base) {
			rate = strconv.FormatFloat(rates.Resolve(c.Code, base), 'f', 4, 64)
		}
		rows = append(rows, []string{c.Code, c.Name, c.Symbol, rate, cli.Muted(rateSource(rates, c.Code, base))})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "CURRENCIES",
		Headers: []string{"Code", "Name", "Symbol", "1 unit in " + base, "Source"},
		Rows:    rows,
	}))
	fmt.Printf("  %d rate pairs loaded (%d overridden in config)\n",
		rates.Pairs(), countOverrides(appConfig.Rates.Overrides))
	return nil
}

// rateSource tells how Resolve answers from -> to.
func rateSource(rates currency.RateTable, from, to string) string {
	switch {
	case from == to:
		return "base"
	case !rates.Has(from, to):
		return "none"
	}
	if _, ok := rates.Direct(from, to); ok {
		return "direct"
	}
	return "inverse"
}

func countOverrides(o map[string]map[string]float64) int {
	n := 0
	for _, row := range o {
		n += len(row)
	}
	return n
}

func runConvert(_ *cobra.Command, args []string) error {
	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", args[0])
	}
	from, to := strings.ToUpper(args[1]), strings.ToUpper(args[2])

	rates := appConfig.RateTable()
	fmt.Printf("  %s = %s\n",
		cli.FormatCurrency(amount, from),
		cli.FormatCurrency(rates.Convert(amount, from, to), to))
	if !rates.Has(from, to) {
		fmt.Printf("  %s\n", cli.Muted(fmt.Sprintf("No %s->%s rate known; shown at face value.", from, to)))
	}
	return nil
}
