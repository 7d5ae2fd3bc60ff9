package main

import (
	"github.com/spf13/cobra"

	"github.com/pkbridge/erlab/internal/book"
)

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Run the tutorial chapters and render the HTML book",
	Long: `Run the built-in exposure-response tutorial end to end: simulate studies,
fit logistic, Emax, and linear models, evaluate covariate effects, compare
candidates with PSIS-LOO, and render everything as a static HTML site in the
configured report directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return book.New(cfg).Run(cmd.Context())
	},
}
