package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Clark-Hu/boxoffice-monthly/internal/currency"
	"github.com/Clark-Hu/boxoffice-monthly/internal/domain"
)

type topOutput struct {
	Year     int                  `json:"year"`
	Month    int                  `json:"month"`
	Currency currency.Currency    `json:"currency"`
	Movies   []domain.RankedMovie `json:"movies"`
}

func newTopCommand(ctx *commandContext) *cobra.Command {
	var (
		year       int
		month      int
		currencyID string
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the box-office top 10 for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := currency.Parse(currencyID)
			if err != nil {
				return err
			}
			if cur == "" {
				cur = currency.USD
			}

			p, err := ctx.newPipeline(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			movies, err := p.ranking.Top(cmd.Context(), year, month)
			if err != nil {
				return err
			}

			formatter := currency.NewFormatter(p.cfg.JPYExchangeRate)
			for i := range movies {
				movies[i].BoxOfficeFormatted = formatter.Format(movies[i].BoxOffice, cur)
			}

			if jsonOut {
				if movies == nil {
					movies = []domain.RankedMovie{}
				}
				return writeJSON(cmd, topOutput{Year: year, Month: month, Currency: cur, Movies: movies})
			}

			out := cmd.OutOrStdout()
			if len(movies) == 0 {
				fmt.Fprintf(out, "No movies found for %04d-%02d\n", year, month)
				return nil
			}
			headers := []string{"#", "Title", "Released", "Box Office", "Est", "Genres", "Watch"}
			aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft}
			fmt.Fprintln(out, renderTable(headers, topRows(movies), aligns, !isTerminal(out)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&year, "year", "y", 0, "Release year (1900 to current year)")
	cmd.Flags().IntVarP(&month, "month", "m", 0, "Release month (1-12)")
	cmd.Flags().StringVar(&currencyID, "currency", "USD", "Display currency (USD or JPY)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("month")

	return cmd
}

func topRows(movies []domain.RankedMovie) [][]string {
	rows := make([][]string, 0, len(movies))
	for _, m := range movies {
		estimated := ""
		if m.Estimated {
			estimated = "yes"
		}
		providers := make([]string, 0, len(m.WatchProviders))
		for _, p := range m.WatchProviders {
			providers = append(providers, p.Name)
		}
		rows = append(rows, []string{
			strconv.Itoa(m.Rank),
			m.Title,
			m.ReleaseDate,
			m.BoxOfficeFormatted,
			estimated,
			strings.Join(m.Genres, ", "),
			strings.Join(providers, ", "),
		})
	}
	return rows
}
