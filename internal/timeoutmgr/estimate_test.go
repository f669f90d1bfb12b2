package timeoutmgr

import "github.com/komposer-mcp/komposer/internal/config"

func defaultTestModel() config.CostModel {
	return config.DefaultCostModel()
}
