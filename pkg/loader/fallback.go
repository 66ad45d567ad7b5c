package loader

import "github.com/rmax-ai/mrpconf/pkg/model"

// Fallback sets are returned whenever the config source cannot deliver a set.
// Existing consumers depend on these exact payloads.

// TechnicalFallback returns the default technical configuration set.
func TechnicalFallback() []model.ConfigItem {
	return []model.ConfigItem{
		model.NewConfigItem("datasourceUrl", model.TypeString, model.StringValue("jdbc:mssql://localhost:5432/mydb"), "Datasource URL"),
		model.NewConfigItem("datasourceDriver", model.TypeString, model.StringValue("mssql"), "Datasource driver"),
		model.NewConfigItem("datasourceUsername", model.TypeString, model.StringValue("admin"), "Datasource username"),
		model.NewConfigItem("datasourcePassword", model.TypePassword, model.Absent, "Datasource password"),
		model.NewConfigItem("datasourceDebug", model.TypeBoolean, model.BoolValue(false), "Datasource debugging"),
	}
}

// OperationalFallback returns the default operational configuration set. It
// is the same for every scenario.
func OperationalFallback() []model.ConfigItem {
	return []model.ConfigItem{
		model.NewConfigItem("batchSize", model.TypeString, model.StringValue("1000"), "Batch size"),
		model.NewConfigItem("enableLogging", model.TypeBoolean, model.BoolValue(true), "Enable logging"),
		model.NewConfigItem("retryCount", model.TypeString, model.StringValue("3"), "Retry count"),
	}
}

// ScenarioFallback returns the example scenarios.
func ScenarioFallback() []model.Scenario {
	return []model.Scenario{
		{ScenarioID: "Standard_LDL_M1000", Description: "Production run Client 1000"},
		{ScenarioID: "Test_Mandant_3000", Description: "Test scenario for Client 3000"},
	}
}
