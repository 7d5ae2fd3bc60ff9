package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pkbridge/erlab/internal/fitstore"
	"github.com/pkbridge/erlab/internal/mcmc"
	"github.com/pkbridge/erlab/internal/model"
	"github.com/pkbridge/erlab/internal/output"
	"github.com/pkbridge/erlab/internal/posterior"
	"github.com/pkbridge/erlab/internal/report"
)

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit the configured model and persist the draws",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Model.Family == "" {
			return fmt.Errorf("fit: no [model] section in the study configuration")
		}
		tab, err := loadData(cmd.Context())
		if err != nil {
			return err
		}
		m, err := model.Build(cfg.Model, tab)
		if err != nil {
			return err
		}

		res, err := mcmc.Sample(cmd.Context(), m, cfg.Sampler)
		if err != nil {
			return err
		}
		sums, err := posterior.Summarize(res.Draws, cfg.Output.Interval)
		if err != nil {
			return err
		}
		if r := posterior.MaxRhat(sums); r > 1.05 {
			slog.Warn("chains may not have converged", "max_rhat", r)
		}

		meta, err := fitstore.Save(cfg.FitDir, fitstore.Meta{
			Name:      cfg.Model.Name,
			Dataset:   cfg.Dataset.Source,
			Rows:      tab.N(),
			Spec:      cfg.Model,
			Sampler:   cfg.Sampler,
			Accept:    res.Accept,
			Summaries: sums,
		}, res.Draws)
		if err != nil {
			return err
		}
		slog.Info("fit saved", "id", meta.ID, "name", meta.Name,
			"draws", res.Draws.Total(), "elapsed", res.Elapsed)

		out, err := newOutput()
		if err != nil {
			return err
		}
		defer out.Close()
		title := fmt.Sprintf("Fit %s (%s)", meta.ID, cfg.Model.Family)
		detail := output.ParseDetail(cfg.Output.Detail)
		return out.Write(cmd.Context(), report.SummaryTable(title, sums, detail, cfg.Output.Interval))
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted fits, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		metas, err := fitstore.List(cfg.FitDir)
		if err != nil {
			return err
		}
		tab := output.Table{
			Title:   "Fits",
			Columns: []string{"id", "name", "family", "created", "rows", "params"},
		}
		for _, m := range metas {
			tab.Rows = append(tab.Rows, []string{
				m.ID, m.Name, string(m.Spec.Family),
				m.CreatedAt.Format("2006-01-02 15:04"),
				fmt.Sprintf("%d", m.Rows), fmt.Sprintf("%d", len(m.Params)),
			})
		}
		out, err := newOutput()
		if err != nil {
			return err
		}
		defer out.Close()
		return out.Write(cmd.Context(), tab)
	},
}
