package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/noah-isme/toko-inventaris/internal/inventory"
	"github.com/noah-isme/toko-inventaris/internal/pricing"
)

var errInvalidProduct = errors.New("product is invalid")

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "toko",
		Short:         "Offline helpers for the inventory service",
		Long:          "toko prices orders with the discount calculator and checks product data before it is loaded.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newDiscountCmd())
	cmd.AddCommand(newTierCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newMigrateCmd())
	return cmd
}

func newDiscountCmd() *cobra.Command {
	var (
		price    float64
		quantity int
		customer string
		taxBps   int
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "discount",
		Short: "Quote a line with quantity and customer discounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := pricing.Quote(price, quantity, customer, taxBps)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "subtotal: %.2f\n", summary.Subtotal)
			fmt.Fprintf(out, "discount: %.2f (%s, %d bps)\n", summary.Discount, summary.Tier, summary.RateBps)
			fmt.Fprintf(out, "tax:      %.2f\n", summary.Tax)
			fmt.Fprintf(out, "total:    %.2f\n", summary.Total)
			return nil
		},
	}
	cmd.Flags().Float64Var(&price, "price", 0, "unit price")
	cmd.Flags().IntVar(&quantity, "qty", 1, "quantity")
	cmd.Flags().StringVar(&customer, "customer", "", "customer type (NEW, REGULAR, PREMIUM)")
	cmd.Flags().IntVar(&taxBps, "tax-bps", 0, "tax rate in basis points")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the quote as JSON")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newTierCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tier <rate>",
		Short: "Classify a discount rate fraction, e.g. 0.15",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("rate must be a number: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), pricing.ClassifyTier(rate))
			return nil
		},
	}
}

func newValidateCmd() *cobra.Command {
	var p inventory.Product
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check product fields against the inventory rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := p.Validate()
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", p.Code)
				return nil
			}
			var fieldErr *inventory.FieldError
			if !errors.As(err, &fieldErr) {
				return err
			}
			fields := make([]string, 0, len(fieldErr.Fields))
			for field := range fieldErr.Fields {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			for _, field := range fields {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: failed %s\n", field, fieldErr.Fields[field])
			}
			return errInvalidProduct
		},
	}
	cmd.Flags().StringVar(&p.Code, "code", "", "product code")
	cmd.Flags().StringVar(&p.Name, "name", "", "product name")
	cmd.Flags().StringVar(&p.Category, "category", "", "category name")
	cmd.Flags().Float64Var(&p.Price, "price", 0, "unit price")
	cmd.Flags().IntVar(&p.Stock, "stock", 0, "stock on hand")
	cmd.Flags().IntVar(&p.MinStock, "min-stock", 0, "low stock threshold")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
