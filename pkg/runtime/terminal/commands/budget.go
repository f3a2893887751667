package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/de-tools/finops-sentinel/pkg/adapters"
	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
	"github.com/de-tools/finops-sentinel/pkg/runtime/terminal/export"
)

type BudgetCmd struct {
	file    string
	limit   float64
	region  string
	runtime Runtime
}

func NewBudgetCmd(rt Runtime) *cobra.Command {
	bc := &BudgetCmd{runtime: rt}
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Estimate the monthly cost of a resource list against a budget",
		RunE:  bc.run,
	}

	cmd.Flags().StringVarP(&bc.file, "file", "f", "", "YAML or JSON file listing the resources to deploy")
	cmd.Flags().Float64Var(&bc.limit, "limit", 0, "Monthly budget limit")
	cmd.Flags().StringVar(&bc.region, "region", "", "Deployment region (default from settings)")

	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("limit")

	return cmd
}

type resourceFile struct {
	Resources []resourceEntry `yaml:"resources"`
}

type resourceEntry struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	SKU      string `yaml:"sku"`
	SizeGB   int    `yaml:"size_gb"`
	Quantity int    `yaml:"quantity"`
}

// ReadResources decodes a resource list, either {resources: [...]} or a bare list.
func ReadResources(data []byte) ([]domain.DeclaredResource, error) {
	var doc resourceFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		var list []resourceEntry
		if listErr := yaml.Unmarshal(data, &list); listErr != nil {
			return nil, apperr.InvalidArgument("budget.read_resources", "failed to parse resource list: %v", err)
		}
		doc.Resources = list
	}

	res := make([]domain.DeclaredResource, 0, len(doc.Resources))
	for _, e := range doc.Resources {
		res = append(res, domain.DeclaredResource{
			Name:         e.Name,
			ResourceType: e.Type,
			SKU:          e.SKU,
			SizeGB:       e.SizeGB,
			Quantity:     e.Quantity,
		})
	}
	return res, nil
}

func (bc *BudgetCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := bc.runtime.Context(cmd)
	defer cancel()

	reporter, err := bc.runtime.Reporter()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(bc.file)
	if err != nil {
		return fmt.Errorf("failed to read resource file: %w", err)
	}
	resources, err := ReadResources(data)
	if err != nil {
		return err
	}

	env, err := bc.runtime.Env(ctx)
	if err != nil {
		return err
	}
	result, err := env.Budget.Estimate(resources, bc.limit, bc.region)
	if err != nil {
		return fmt.Errorf("failed to estimate budget: %w", err)
	}

	out := adapters.MapBudgetResultDomainToApi(result)
	return reporter.Handle(out, export.BudgetView(out))
}
